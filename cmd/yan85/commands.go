package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/colorfulnotion/yan85/arch"
	"github.com/colorfulnotion/yan85/assembler"
	"github.com/colorfulnotion/yan85/debugger"
	"github.com/colorfulnotion/yan85/emulator"
	"github.com/colorfulnotion/yan85/emulator/trace"
	log "github.com/colorfulnotion/yan85/log"
	"github.com/colorfulnotion/yan85/program"
	"github.com/colorfulnotion/yan85/telemetry"
	"github.com/nsf/jsondiff"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type globalFlags struct {
	config   string
	logLevel string
	debug    string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "yan85",
		Short: "Emulator for a configurable 3-byte instruction set",
		Long: `yan85 executes images for a small VM whose opcode bytes, field order,
register identifiers, comparison flags and syscall numbers come from a
configuration preset or file.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := log.ParseLevel(g.logLevel); err != nil {
				return err
			}
			log.InitLogger(g.logLevel)
			log.EnableModules(g.debug)
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&g.config, "config", "default", "Configuration preset ("+strings.Join(arch.Presets(), ", ")+") or .json/.yaml file")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error, crit")
	rootCmd.PersistentFlags().StringVar(&g.debug, "debug", "", "Comma-separated modules for trace/debug output (emulator,syscall,asm,config,debugger or all)")

	rootCmd.AddCommand(
		newRunCmd(g),
		newDebugCmd(g),
		newAsmCmd(g),
		newDisasmCmd(g),
		newConfigCmd(g),
	)
	return rootCmd
}

// loadImage reads a raw image, or assembles it when asSource is set or the
// file looks like source.
func loadImage(path string, cfg *arch.Config, asSource bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asm", ".s", ".yan":
		asSource = true
	}
	if !asSource {
		return data, nil
	}
	return assembler.Assemble(string(data), cfg)
}

type runFlags struct {
	maxSteps int
	trace    string
	profile  string
	expect   string
	snapshot string
	dryRun   bool
	source   bool
	otlp     string
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <image>",
		Short: "Execute an image until it faults or hits the step limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runImage(ctx, cmd, g, f, args[0])
		},
	}
	cmd.Flags().IntVar(&f.maxSteps, "max-steps", 0, "Stop after this many instructions (0 = no limit)")
	cmd.Flags().StringVar(&f.trace, "trace", "", "Write a JSONL step trace to this file (- for stdout)")
	cmd.Flags().StringVar(&f.profile, "profile", "", "Write an HTML instruction profile to this file")
	cmd.Flags().StringVar(&f.expect, "expect", "", "Compare the final state against this snapshot JSON")
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "Write the final state as snapshot JSON to this file")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Serve syscalls from an in-memory host instead of the OS")
	cmd.Flags().BoolVar(&f.source, "source", false, "Treat the input as assembler source")
	cmd.Flags().StringVar(&f.otlp, "otlp", "", "Export run spans over OTLP/HTTP to host:port")
	return cmd
}

func runImage(ctx context.Context, cmd *cobra.Command, g *globalFlags, f *runFlags, path string) (err error) {
	cfg, err := arch.Load(g.config)
	if err != nil {
		return err
	}
	image, err := loadImage(path, cfg, f.source)
	if err != nil {
		return err
	}

	tc, err := telemetry.Setup(ctx, f.otlp)
	if err != nil {
		return err
	}
	defer func() {
		if serr := tc.Shutdown(context.Background()); serr != nil {
			log.Warn(log.EmulatorModule, "telemetry shutdown", "err", serr)
		}
	}()

	opts := []emulator.Option{emulator.WithTelemetry(tc)}
	var mock *emulator.MockHostEnv
	if f.dryRun {
		mock = emulator.NewMockHostEnv()
		opts = append(opts, emulator.WithHostEnv(mock))
	}
	if f.trace != "" {
		var w *trace.JSONLWriter
		if f.trace == "-" {
			w = trace.NewJSONLWriterStdout()
		} else if w, err = trace.NewJSONLWriterFile(f.trace); err != nil {
			return err
		}
		defer closeInto(w, &err)
		opts = append(opts, emulator.WithTracer(w))
	}
	var prof *emulator.Profile
	if f.profile != "" {
		prof = emulator.NewProfile()
		opts = append(opts, emulator.WithProfile(prof))
	}

	emu, err := emulator.New(emulator.NewMemory(image), cfg, opts...)
	if err != nil {
		return err
	}
	steps, runErr := emu.Run(ctx, f.maxSteps)
	log.Info(log.EmulatorModule, "session ended", "steps", steps, "err", runErr)

	out := cmd.OutOrStdout()
	if mock != nil {
		if b := mock.Output(1); len(b) > 0 {
			fmt.Fprintf(out, "%s", b)
		}
	}
	if prof != nil {
		if err := writeProfile(f.profile, prof); err != nil {
			return err
		}
	}

	snap, err := emu.Snapshot()
	if err != nil {
		return err
	}
	if f.snapshot != "" {
		data, err := snap.JSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(f.snapshot, data, 0o644); err != nil {
			return err
		}
	}
	if f.expect != "" {
		expected, err := emulator.ReadSnapshot(f.expect)
		if err != nil {
			return err
		}
		diff, _, err := emulator.CompareSnapshots(expected, snap)
		if err != nil {
			return err
		}
		if diff != jsondiff.FullMatch && diff != jsondiff.SupersetMatch {
			text, derr := emulator.DiffSnapshots(expected, snap, isTerminal(out))
			if derr != nil {
				log.Warn(log.EmulatorModule, "snapshot diff", "err", derr)
				return fmt.Errorf("final state does not match %s: %w", f.expect, derr)
			}
			fmt.Fprintln(out, text)
			return fmt.Errorf("final state does not match %s", f.expect)
		}
		fmt.Fprintf(out, "final state matches %s\n", f.expect)
	}
	return runErr
}

func writeProfile(path string, prof *emulator.Profile) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := prof.RenderHTML(fh); err != nil {
		fh.Close()
		return err
	}
	log.Info(log.EmulatorModule, "profile written", "path", path, "summary", prof.String())
	return fh.Close()
}

// closeInto closes c and reports its error through err unless err is already set.
func closeInto(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func isTerminal(w interface{}) bool {
	fh, ok := w.(*os.File)
	return ok && term.IsTerminal(int(fh.Fd()))
}

func newDebugCmd(g *globalFlags) *cobra.Command {
	var (
		dryRun  bool
		source  bool
		history string
	)
	cmd := &cobra.Command{
		Use:   "debug <image>",
		Short: "Step through an image interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := arch.Load(g.config)
			if err != nil {
				return err
			}
			image, err := loadImage(args[0], cfg, source)
			if err != nil {
				return err
			}
			var opts []emulator.Option
			if dryRun {
				opts = append(opts, emulator.WithHostEnv(emulator.NewMockHostEnv()))
			}
			emu, err := emulator.New(emulator.NewMemory(image), cfg, opts...)
			if err != nil {
				return err
			}
			d, err := debugger.New(emu, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return d.Serve(cmd.Context(), os.Stdin, history)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Serve syscalls from an in-memory host instead of the OS")
	cmd.Flags().BoolVar(&source, "source", false, "Treat the input as assembler source")
	cmd.Flags().StringVar(&history, "history", filepath.Join(os.TempDir(), "yan85_history.txt"), "Readline history file")
	return cmd
}

func newAsmCmd(g *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "asm <source>",
		Short: "Assemble mnemonic source into an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := arch.Load(g.config)
			if err != nil {
				return err
			}
			image, err := loadImage(args[0], cfg, true)
			if err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".bin"
			}
			if err := os.WriteFile(output, image, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d instructions to %s\n", len(image)/arch.InstructionSize, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Image file (default: source name with .bin)")
	return cmd
}

func newDisasmCmd(g *globalFlags) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "disasm <image>",
		Short: "List the instructions of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := arch.Load(g.config)
			if err != nil {
				return err
			}
			image, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			listing, err := program.Disassemble(image, cfg, count)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), listing)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Number of instructions to list (0 = all)")
	return cmd
}

func newConfigCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the active configuration and memory map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := arch.Load(g.config)
			if err != nil {
				return err
			}
			if asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.Tree())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a tree")
	return cmd
}
