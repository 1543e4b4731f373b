package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	set "github.com/deckarep/golang-set/v2"
	flag "github.com/spf13/pflag"

	"github.com/m-manu/virtualpath/bytesutil"
	"github.com/m-manu/virtualpath/config"
	"github.com/m-manu/virtualpath/fmte"
	"github.com/m-manu/virtualpath/lib"
	"github.com/m-manu/virtualpath/logging"
	"github.com/m-manu/virtualpath/metrics"
	"github.com/m-manu/virtualpath/vfs"
)

// Constants indicating return codes of this tool, when run from command line
const (
	exitCodeSuccess = iota
	exitCodeInvalidNumArgs
	exitCodeConfigError
	exitCodeMountError
	exitCodeExclusionFilesError
	exitCodeInvalidUsage
	exitCodeCommandError
)

//go:embed default_exclusions.txt
var defaultExclusionsStr string

var flags struct {
	isHelp           func() bool
	getConfigPath    func() string
	getMounts        func() []string
	getExcludedFiles func() set.Set[string]
	isVerbose        func() bool
	isDryRun         func() bool
	getDepth         func() int
	getParallelism   func() int
	getMinSize       func() int64
	isMetricsOn      func() bool
}

func setupExclusionsOpt() {
	const exclusionsFlag = "exclusions"
	const exclusionsDefaultValue = ""
	defaultExclusions, defaultExclusionsExamples := lib.LineSeparatedStrToSet(defaultExclusionsStr)
	excludesListFilePathPtr := flag.String(exclusionsFlag, exclusionsDefaultValue,
		fmt.Sprintf("path to file containing newline separated list of file/directory names to be excluded\n"+
			"(if this is not set, by default these will be ignored: %s etc.)",
			strings.Join(defaultExclusionsExamples, ", ")))
	flags.getExcludedFiles = func() set.Set[string] {
		excludesListFilePath := *excludesListFilePathPtr
		if excludesListFilePath == exclusionsDefaultValue {
			return defaultExclusions
		}
		rawContents, err := os.ReadFile(excludesListFilePath)
		if err != nil {
			fmte.PrintfErr("error: argument to flag --%s isn't readable: %+v\n", exclusionsFlag, err)
			flag.Usage()
			os.Exit(exitCodeExclusionFilesError)
		}
		contents := strings.ReplaceAll(string(rawContents), "\r\n", "\n") // Windows
		exclusions, _ := lib.LineSeparatedStrToSet(contents)
		return exclusions
	}
}

func handlePanic() {
	err := recover()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Program exited unexpectedly. "+
			"Please report the below error to the author:\n"+
			"%+v\n", err)
		_, _ = fmt.Fprintln(os.Stderr, string(debug.Stack()))
	}
}

func setupUsage() {
	flag.Usage = func() {
		fmte.PrintfErr("Run \"virtualpath --help\" for usage\n")
	}
}

func showHelpAndExit() {
	flag.CommandLine.SetOutput(os.Stdout)
	fmt.Printf(`virtualpath browses and changes files on local disks, archives, SFTP/FTP servers and ` +
		`object stores through one path syntax.

Usage:
	 virtualpath <flags> <command> [arguments]

where arguments name files and directories as mount:path (e.g. "backup:/photos/2024")

commands:
`)
	for _, name := range commandNames() {
		c := commands[name]
		fmt.Printf("	%-8s %-28s %s\n", name, c.args, c.help)
	}
	fmt.Printf(`
mounts come from the configuration file and from --mount flags of the form name=type[:arg][,key=value...],
for example "tmp=memory", "home=local:/home/me" or "srv=sftp:me@host:/srv,dialer=system"

flags: (all optional)
`)
	flag.PrintDefaults()
	fmt.Printf("\nMore details here: https://github.com/m-manu/virtualpath\n")
	os.Exit(exitCodeSuccess)
}

func setupHelpOpt() {
	helpPtr := flag.BoolP("help", "h", false, "display help")
	flags.isHelp = func() bool {
		return *helpPtr
	}
}

func setupConfigOpts() {
	configPtr := flag.StringP("config", "c", os.Getenv("VIRTUALPATH_CONFIG"),
		"path to a YAML file defining mounts and logging (default $VIRTUALPATH_CONFIG)")
	flags.getConfigPath = func() string {
		return *configPtr
	}
	mountsPtr := flag.StringArrayP("mount", "m", nil, "mount to add, as name=type[:arg][,key=value...] (repeatable)")
	flags.getMounts = func() []string {
		return *mountsPtr
	}
}

func setupBehaviourOpts() {
	verbosePtr := flag.BoolP("verbose", "v", false, "print per-file progress and debug logs")
	flags.isVerbose = func() bool {
		return *verbosePtr
	}
	dryRunPtr := flag.BoolP("dry-run", "n", false, "print the changes a command would make instead of making them")
	flags.isDryRun = func() bool {
		return *dryRunPtr
	}
	depthPtr := flag.IntP("depth", "d", vfs.UnlimitedDepth,
		"how many directory levels tree and find descend (1 = only the given directory)")
	flags.getDepth = func() int {
		return *depthPtr
	}
	parallelismPtr := flag.IntP("parallelism", "p", runtime.NumCPU(), "files hashed at a time by digest and dupes")
	flags.getParallelism = func() int {
		return *parallelismPtr
	}
	minSizePtr := flag.String("min-size", "1", "smallest file considered by dupes, e.g. 4KiB")
	flags.getMinSize = func() int64 {
		size, err := bytesutil.ParseSize(*minSizePtr)
		if err != nil {
			fmte.PrintfErr("error: flag --min-size: %+v\n", err)
			flag.Usage()
			os.Exit(exitCodeInvalidUsage)
		}
		return size
	}
	metricsPtr := flag.Bool("metrics", false, "print backend metrics after the command")
	flags.isMetricsOn = func() bool {
		return *metricsPtr
	}
}

func setupFlags() {
	setupHelpOpt()
	setupConfigOpts()
	setupExclusionsOpt()
	setupBehaviourOpts()
	setupUsage()
}

// loadConfig merges the configuration file, if any, with --mount flags
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if path := flags.getConfigPath(); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg.ApplyEnv()
	}
	for _, spec := range flags.getMounts() {
		m, err := config.ParseMount(spec)
		if err != nil {
			return nil, err
		}
		cfg.Mounts = append(cfg.Mounts, m)
	}
	return cfg, nil
}

func disposeAll(mounts map[string]*vfs.Provider) {
	var errs []error
	for _, p := range mounts {
		if err := p.Dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := fmte.Errors("couldn't close mounts", errs); err != nil {
		fmte.PrintfErr("warning: %+v\n", err)
	}
}

func main() {
	defer handlePanic()
	setupFlags()
	flag.Parse()
	if flags.isHelp() {
		showHelpAndExit()
	}
	if flag.NArg() == 0 {
		fmte.PrintfErr("error: no command passed\n")
		flag.Usage()
		os.Exit(exitCodeInvalidNumArgs)
	}
	cfg, err := loadConfig()
	if err != nil {
		fmte.PrintfErr("error: %+v\n", err)
		os.Exit(exitCodeConfigError)
	}
	if flags.isVerbose() {
		fmte.VerboseOn()
		cfg.Log.Level = "debug"
	}
	if err := logging.Init(cfg.Log); err != nil {
		fmte.PrintfErr("error: couldn't set up logging: %+v\n", err)
		os.Exit(exitCodeConfigError)
	}
	defer func() { _ = logging.Sync() }()
	mounts, err := cfg.OpenAll()
	if err != nil {
		fmte.PrintfErr("error: %+v\n", err)
		os.Exit(exitCodeMountError)
	}
	a := &app{
		mounts:      mounts,
		out:         os.Stdout,
		in:          os.Stdin,
		exclusions:  flags.getExcludedFiles(),
		dryRun:      flags.isDryRun(),
		depth:       flags.getDepth(),
		parallelism: flags.getParallelism(),
		minSize:     flags.getMinSize(),
	}
	runErr := a.run(flag.Arg(0), flag.Args()[1:])
	if flags.isMetricsOn() {
		_ = metrics.Write(os.Stdout)
	}
	disposeAll(mounts)
	if runErr != nil {
		fmte.PrintfErr("error: %+v\n", runErr)
		if errors.Is(runErr, errUsage) {
			flag.Usage()
			os.Exit(exitCodeInvalidUsage)
		}
		os.Exit(exitCodeCommandError)
	}
}
