package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	set "github.com/deckarep/golang-set/v2"

	"github.com/m-manu/virtualpath/action"
	"github.com/m-manu/virtualpath/bytesutil"
	"github.com/m-manu/virtualpath/entity"
	"github.com/m-manu/virtualpath/fmte"
	"github.com/m-manu/virtualpath/metrics"
	"github.com/m-manu/virtualpath/pathutil"
	"github.com/m-manu/virtualpath/service"
	"github.com/m-manu/virtualpath/vfs"
)

var errUsage = errors.New("invalid usage")

// app runs one command against a set of named mounts
type app struct {
	mounts      map[string]*vfs.Provider
	out         io.Writer
	in          io.Reader
	exclusions  set.Set[string]
	dryRun      bool
	depth       int
	parallelism int
	minSize     int64
}

type command struct {
	args  string
	help  string
	nArgs [2]int // min, max; max < 0 is unbounded
	run   func(a *app, args []string) error
}

var commands = map[string]command{
	"mounts":  {"", "list mounts", [2]int{0, 0}, (*app).mountsCmd},
	"ls":      {"<mount:path>", "list a directory", [2]int{1, 1}, (*app).lsCmd},
	"tree":    {"<mount:path>", "print a directory tree down to --depth", [2]int{1, 1}, (*app).treeCmd},
	"cat":     {"<mount:path>", "write a file to stdout", [2]int{1, 1}, (*app).catCmd},
	"put":     {"<mount:path>", "store stdin as a file, replacing it if it exists", [2]int{1, 1}, (*app).putCmd},
	"mkdir":   {"<mount:path>", "create a directory and its parents", [2]int{1, 1}, (*app).mkdirCmd},
	"rm":      {"<mount:path>", "delete a file, or a directory with everything below it", [2]int{1, 1}, (*app).rmCmd},
	"cp":      {"<mount:path> <mount:path>", "copy a file, across mounts too", [2]int{2, 2}, (*app).cpCmd},
	"mv":      {"<mount:path> <mount:path>", "move a file, across mounts too", [2]int{2, 2}, (*app).mvCmd},
	"find":    {"<pattern> [mount...]", "find files whose name matches a ? and * pattern", [2]int{1, -1}, (*app).findCmd},
	"hash":    {"<mount:path>", "print the MD5 of a file", [2]int{1, 1}, (*app).hashCmd},
	"digest":  {"<mount:path>", "print path, size, MD5 of every file below a directory as CSV", [2]int{1, 1}, (*app).digestCmd},
	"dupes":   {"<mount:path>", "list groups of identical files below a directory", [2]int{1, 1}, (*app).dupesCmd},
	"sync":    {"<mount:path> <mount:path>", "make destination hold every file of source, reusing files it already has", [2]int{2, 2}, (*app).syncCmd},
	"metrics": {"", "print backend metrics of this run", [2]int{0, 0}, (*app).metricsCmd},
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *app) run(name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	if len(args) < cmd.nArgs[0] || (cmd.nArgs[1] >= 0 && len(args) > cmd.nArgs[1]) {
		return fmt.Errorf("%w: %s %s", errUsage, name, cmd.args)
	}
	return cmd.run(a, args)
}

// resolve splits "mount:path" and returns the provider with the path
func (a *app) resolve(address string) (*vfs.Provider, string, error) {
	mount, virtualPath, found := strings.Cut(address, ":")
	if !found {
		return nil, "", fmt.Errorf("%w: %q is not a mount:path address", errUsage, address)
	}
	p, ok := a.mounts[mount]
	if !ok {
		return nil, "", fmt.Errorf("no mount named %q", mount)
	}
	return p, virtualPath, nil
}

func (a *app) directoryAt(address string) (*vfs.Directory, error) {
	p, virtualPath, err := a.resolve(address)
	if err != nil {
		return nil, err
	}
	dir, err := p.GetDirectory(virtualPath)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, fmt.Errorf("directory %s does not exist", address)
	}
	return dir, nil
}

func (a *app) fileAt(address string) (*vfs.File, error) {
	p, virtualPath, err := a.resolve(address)
	if err != nil {
		return nil, err
	}
	f, err := p.GetFile(virtualPath)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("file %s does not exist", address)
	}
	return f, nil
}

func (a *app) mountsCmd([]string) error {
	for _, name := range sortedKeys(a.mounts) {
		p := a.mounts[name]
		_, _ = fmt.Fprintf(a.out, "%s\t%s\tseparator=%q\tconnected=%v\n",
			name, p.RootDirectory().RealPath(), p.VirtualPathSeparator(), p.Connected())
	}
	return nil
}

func sortedKeys(mounts map[string]*vfs.Provider) []string {
	names := make([]string, 0, len(mounts))
	for name := range mounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *app) lsCmd(args []string) error {
	dir, err := a.directoryAt(args[0])
	if err != nil {
		return err
	}
	nodes, err := dir.Nodes()
	if err != nil {
		return err
	}
	for _, n := range nodes {
		if n.IsDirectory() {
			_, _ = fmt.Fprintf(a.out, "%s%s\n", n.Name(), dir.Provider().VirtualPathSeparator())
		} else {
			f := n.(*vfs.File)
			_, _ = fmt.Fprintf(a.out, "%s\t%v\n", f.Name(), entity.FileMeta{Size: f.Size(), Modified: f.LastModified()})
		}
	}
	return nil
}

func (a *app) treeCmd(args []string) error {
	dir, err := a.directoryAt(args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.out, dir.VirtualPath())
	return a.printTree(dir, "  ", a.depth)
}

func (a *app) printTree(dir *vfs.Directory, indent string, depth int) error {
	if depth == 0 {
		return nil
	}
	dirs, err := dir.Directories()
	if err != nil {
		return err
	}
	for _, child := range dirs {
		if a.excluded(child.Name()) {
			continue
		}
		_, _ = fmt.Fprintf(a.out, "%s%s%s\n", indent, child.Name(), dir.Provider().VirtualPathSeparator())
		if err := a.printTree(child, indent+"  ", depth-1); err != nil {
			return err
		}
	}
	files, err := dir.Files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if a.excluded(f.Name()) {
			continue
		}
		_, _ = fmt.Fprintf(a.out, "%s%s (%s)\n", indent, f.Name(), bytesutil.BinaryFormat(f.Size()))
	}
	return nil
}

func (a *app) excluded(name string) bool {
	return a.exclusions != nil && a.exclusions.Contains(name)
}

func (a *app) catCmd(args []string) error {
	f, err := a.fileAt(args[0])
	if err != nil {
		return err
	}
	r, err := f.OpenRead()
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(a.out, r)
	return err
}

func (a *app) putCmd(args []string) error {
	p, virtualPath, err := a.resolve(args[0])
	if err != nil {
		return err
	}
	if a.dryRun {
		fmte.Printf("would write stdin to %s (dry run)\n", args[0])
		return nil
	}
	existing, err := p.GetFile(virtualPath)
	if err != nil {
		return err
	}
	if existing != nil {
		data, err := io.ReadAll(a.in)
		if err != nil {
			return err
		}
		return existing.WriteAll(data)
	}
	f, err := p.CreateFileFrom(virtualPath, a.in)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("parent directory of %s does not exist", args[0])
	}
	return nil
}

func (a *app) mkdirCmd(args []string) error {
	p, virtualPath, err := a.resolve(args[0])
	if err != nil {
		return err
	}
	return a.perform([]action.Action{action.MakeDirectoryAction{Provider: p, Path: virtualPath}})
}

func (a *app) rmCmd(args []string) error {
	p, virtualPath, err := a.resolve(args[0])
	if err != nil {
		return err
	}
	if pathutil.Tokenize(virtualPath, p.VirtualPathSeparator()).Empty() {
		return fmt.Errorf("%w: refusing to remove the root of %q", errUsage, p.Name())
	}
	return a.perform([]action.Action{action.DeleteAction{Provider: p, Path: virtualPath}})
}

// transferTarget turns a destination address into a file path, appending the source's name
// when the destination names a directory
func (a *app) transferTarget(src *vfs.File, address string) (*vfs.Provider, string, error) {
	p, virtualPath, err := a.resolve(address)
	if err != nil {
		return nil, "", err
	}
	sep := p.VirtualPathSeparator()
	isDir := virtualPath == "" || strings.HasSuffix(virtualPath, sep)
	if !isDir {
		if isDir, err = p.DirectoryExists(virtualPath); err != nil {
			return nil, "", err
		}
	}
	if isDir {
		virtualPath = p.CombineVirtualPath(virtualPath, src.Name())
	}
	return p, virtualPath, nil
}

func (a *app) cpCmd(args []string) error {
	return a.transfer(args, false)
}

func (a *app) mvCmd(args []string) error {
	return a.transfer(args, true)
}

func (a *app) transfer(args []string, move bool) error {
	src, err := a.fileAt(args[0])
	if err != nil {
		return err
	}
	dst, dstPath, err := a.transferTarget(src, args[1])
	if err != nil {
		return err
	}
	if move {
		return a.perform([]action.Action{action.MoveFileAction{
			Source: src.Provider(), SourcePath: src.VirtualPath(), Destination: dst, DestinationPath: dstPath,
		}})
	}
	return a.perform([]action.Action{action.CopyFileAction{
		Source: src.Provider(), SourcePath: src.VirtualPath(), Destination: dst, DestinationPath: dstPath,
	}})
}

func (a *app) findCmd(args []string) error {
	mounts := a.mounts
	if len(args) > 1 {
		mounts = make(map[string]*vfs.Provider, len(args)-1)
		for _, name := range args[1:] {
			p, ok := a.mounts[name]
			if !ok {
				return fmt.Errorf("no mount named %q", name)
			}
			mounts[name] = p
		}
	}
	matches, err := service.FindMatchingFiles(mounts, args[0], a.depth)
	if err != nil {
		return err
	}
	for _, m := range matches {
		_, _ = fmt.Fprintln(a.out, m)
	}
	return nil
}

func (a *app) hashCmd(args []string) error {
	f, err := a.fileAt(args[0])
	if err != nil {
		return err
	}
	hash, err := f.GetFileHash()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "%s  %s\n", hash, args[0])
	return nil
}

func (a *app) digestCmd(args []string) error {
	dir, err := a.directoryAt(args[0])
	if err != nil {
		return err
	}
	digests, err := service.DigestTree(context.Background(), dir, a.exclusions, a.parallelism)
	if err != nil {
		return err
	}
	return service.WriteManifest(a.out, digests)
}

func (a *app) dupesCmd(args []string) error {
	dir, err := a.directoryAt(args[0])
	if err != nil {
		return err
	}
	groups, err := service.FindDuplicates(dir, a.exclusions, a.minSize, a.parallelism)
	if err != nil {
		return err
	}
	for _, group := range groups {
		_, _ = fmt.Fprintln(a.out, strings.Join(group, "\t"))
	}
	fmte.Printf("Found %d groups of identical files\n", len(groups))
	return nil
}

func (a *app) syncCmd(args []string) error {
	src, err := a.directoryAt(args[0])
	if err != nil {
		return err
	}
	dst, err := a.directoryAt(args[1])
	if err != nil {
		return err
	}
	fmte.Printf("Comparing %s with %s...\n", args[0], args[1])
	start := time.Now()
	plan, err := service.PlanSync(src, dst, a.exclusions)
	if err != nil {
		return err
	}
	fmte.Printf("Compared %d files (total size %s) in %.1fs: %d unchanged, %d to move, %d to copy\n",
		plan.Unchanged+plan.Moves+plan.Copies, bytesutil.BinaryFormat(plan.SourceSize), time.Since(start).Seconds(),
		plan.Unchanged, plan.Moves, plan.Copies)
	if len(plan.Actions) == 0 {
		fmte.Printf("Destination already holds every file of source. So, no action needed 🙂!\n")
		return nil
	}
	if plan.Moves > 0 {
		fmte.Printf("Moving files already at destination saves %s of transfer; %s will be copied\n",
			bytesutil.BinaryFormat(plan.Savings), bytesutil.BinaryFormat(plan.Transfer))
	}
	return a.perform(plan.Actions)
}

func (a *app) metricsCmd([]string) error {
	return metrics.Write(a.out)
}

// perform applies actions in order, or only prints them in a dry run.
// Every action is attempted; the failures are returned together.
func (a *app) perform(actions []action.Action) error {
	var start, end time.Time
	if a.dryRun {
		fmte.Printf("Simulating actions (dry run)...\n")
	}
	var errs []error
	start = time.Now()
	for i, act := range actions {
		fmte.Printf("%4d/%d %s: ", i+1, len(actions), act)
		if a.dryRun {
			fmte.Printf("skipping (dry run)\n")
			continue
		}
		if err := act.Perform(); err != nil {
			fmte.Printf("failed due to: %+v\n", err)
			errs = append(errs, err)
			continue
		}
		fmte.Printf("done\n")
	}
	end = time.Now()
	if len(actions) > 1 {
		fmte.Printf("%d of %d actions succeeded in %.1fs\n", len(actions)-len(errs), len(actions), end.Sub(start).Seconds())
	}
	return fmte.Errors(fmt.Sprintf("%d actions failed", len(errs)), errs)
}
