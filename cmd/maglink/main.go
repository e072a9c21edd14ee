// maglink CLI - evaluate expressions against a VM with native extensions loaded
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/maglink/bridge"
	"github.com/chazu/maglink/config"
	_ "github.com/chazu/maglink/examples/reverse"
	"github.com/chazu/maglink/ext"
)

func main() {
	expr := flag.String("e", "", "Evaluate expression and print the result")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	configDir := flag.String("config", "", "Directory to search for maglink.toml (default: current directory)")
	requires := flag.String("r", "", "Comma-separated extensions to require before evaluating")
	snapshotPath := flag.String("snapshot", "", "Write the result of -e to this file as CBOR")
	listMethods := flag.Bool("methods", false, "List native methods registered by extensions")
	gcStats := flag.Bool("gc-stats", false, "Print garbage collector statistics before exiting")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: maglink [options]\n\n")
		fmt.Fprintf(os.Stderr, "Starts a VM, loads the configured extensions and evaluates expressions.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  maglink -r example -e 'Example.reverse(\"apples\")'\n")
		fmt.Fprintf(os.Stderr, "  maglink -i                        # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  maglink -methods -r example       # Show registered native methods\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbose && cfg.Log.Verbosity < 1 {
		cfg.Log.Verbosity = 1
	}
	cfg.ConfigureLogging()

	if err := bridge.InitWith(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer bridge.Shutdown()

	ext.SetSearchPath(cfg.PluginDirPaths())
	ext.Install()

	names := append([]string{}, cfg.Extensions.Preload...)
	if *requires != "" {
		for _, n := range strings.Split(*requires, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}
	if err := preload(names); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *listMethods {
		printMethods()
	}

	status := 0
	if *expr != "" {
		result, err := eval(*expr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			status = 1
		} else {
			fmt.Println(result.Inspect())
			if *snapshotPath != "" {
				if err := writeSnapshot(*snapshotPath, result); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					status = 1
				}
			}
		}
	}

	if *interactive || (*expr == "" && !*listMethods) {
		runREPL()
	}

	if *gcStats {
		printGCStats()
	}
	if status != 0 {
		bridge.Shutdown()
		os.Exit(status)
	}
}

// loadConfig finds maglink.toml from dir upward, falling back to defaults.
func loadConfig(dir string) (*config.Config, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}
	cfg, err := config.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

// preload requires each extension, turning a raised exception into an error.
func preload(names []string) error {
	if len(names) == 0 {
		return nil
	}
	var loadErr error
	_, err := bridge.Protect(func() bridge.Value {
		loadErr = ext.Preload(names)
		return bridge.Nil
	})
	if err != nil {
		return err
	}
	return loadErr
}

func eval(src string) (bridge.AnyObject, error) {
	v := bridge.Current()
	return bridge.Protect(func() bridge.Value {
		return bridge.Value(v.Eval(src))
	})
}

func writeSnapshot(path string, result bridge.AnyObject) error {
	data, err := bridge.MarshalCBOR(result)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printMethods() {
	for _, r := range bridge.Registrations() {
		sep := "#"
		if r.Singleton {
			sep = "."
		}
		arity := fmt.Sprintf("%d", r.Arity)
		if r.Arity == bridge.Variadic {
			arity = "*"
		}
		fmt.Printf("%s%s%s/%s\n", r.Owner, sep, r.Name, arity)
	}
}

func printGCStats() {
	s := bridge.Current().GCStats()
	fmt.Printf("gc: %d runs, %d live, %d freed (last %d), %s total\n",
		s.Runs, s.Live, s.Freed, s.LastFreed, s.Duration)
}

// runREPL starts an interactive read-eval-print loop
func runREPL() {
	fmt.Println("maglink REPL (type 'exit' to quit, ':help' for commands)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(">> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return
		case strings.HasPrefix(line, ":"):
			handleREPLCommand(line)
			continue
		}

		result, err := eval(line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("=> %s\n", result.Inspect())
	}
}

// handleREPLCommand handles REPL meta-commands
func handleREPLCommand(cmd string) {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case ":help", ":h":
		fmt.Println("REPL Commands:")
		fmt.Println("  :help, :h           Show this help")
		fmt.Println("  :gc                 Run the garbage collector")
		fmt.Println("  :methods            List native methods")
		fmt.Println("  :extensions         List compiled-in extensions")
		fmt.Println("  :require NAME       Load an extension")
		fmt.Println("  exit, quit          Exit REPL")
	case ":gc":
		s := bridge.GC()
		fmt.Printf("freed %d, %d live\n", s.LastFreed, s.Live)
	case ":methods":
		printMethods()
	case ":extensions":
		for _, name := range ext.Registered() {
			mark := " "
			if ext.IsLoaded(name) {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, name)
		}
	case ":require":
		if len(fields) < 2 {
			fmt.Println("usage: :require NAME")
			return
		}
		if err := preload(fields[1:]); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	default:
		fmt.Printf("Unknown command: %s (try :help)\n", fields[0])
	}
}
