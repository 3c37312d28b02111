// Package console is an interactive command line over a registry.
package console

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ergochat/readline"

	"github.com/sharedcode/idxstore"
	"github.com/sharedcode/idxstore/indexed"
	"github.com/sharedcode/idxstore/rbtree"
	"github.com/sharedcode/idxstore/registry"
)

var ErrUsage = errors.New("bad arguments")

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("adduser"),
	readline.PcItem("user"),
	readline.PcItem("users"),
	readline.PcItem("deluser"),

	readline.PcItem("addpkg"),
	readline.PcItem("pkgs"),
	readline.PcItem("delpkg"),
	readline.PcItem("purge"),

	readline.PcItem("addreport"),
	readline.PcItem("reports"),
	readline.PcItem("delreport"),

	readline.PcItem("stats",
		readline.PcItem(registry.UsersSet),
		readline.PcItem(registry.PackagesSet),
		readline.PcItem(registry.ReportsSet),
	),
	readline.PcItem("tree"),
	readline.PcItem("check"),
	readline.PcItem("clear"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

const usage = `commands:
  adduser <username> [full name]     register a user
  user <username>                    show a user
  users [prefix]                     list users, optionally by username prefix
  deluser <username> [cascade]       delete a user, with its packages when cascade is given
  addpkg <sender> <recipient> <weight> [description]
  pkgs <sender>                      list the packages of a sender
  delpkg <sender> <id>               delete one package
  purge <sender> <expression>        delete the packages matching a CEL expression on record
  addreport <title>                  store a report
  reports                            list reports
  delreport <id>                     delete a report
  stats [set]                        show record set statistics
  tree                               show the packages sender tree
  check                              verify the integrity of every record set
  clear                              remove every record
  exit | quit
`

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// Console runs commands against a registry and prints their results to its output.
type Console struct {
	svc *registry.Service
	out io.Writer
	rl  *readline.Instance
}

// New returns a console over svc writing to out.
func New(svc *registry.Service, out io.Writer) *Console {
	return &Console{svc: svc, out: out}
}

// Open attaches the console to the terminal. historyFile may be empty.
func (c *Console) Open(historyFile string) (err error) {
	c.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "idx> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return
	}
	c.rl.CaptureExitSignal()
	return
}

func (c *Console) Close() error {
	if c.rl != nil {
		_ = c.rl.Close()
		c.rl = nil
	}
	return nil
}

// REPL reads and executes one line. It returns io.EOF once the user leaves.
func (c *Console) REPL() error {
	line, err := c.rl.Readline()
	if err == readline.ErrInterrupt && len(line) != 0 {
		return nil
	}
	if err != nil {
		return err
	}
	return c.Execute(line)
}

// Run loops over REPL, printing command errors, until the user leaves.
func (c *Console) Run() error {
	for {
		err := c.REPL()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return nil
		}
		if err != nil {
			_, _ = fmt.Fprintf(c.out, "%s\n", err.Error())
		}
	}
}

// Execute runs one command line. It returns io.EOF for exit and quit.
func (c *Console) Execute(line string) error {
	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "help":
		_, _ = fmt.Fprint(c.out, usage)
		return nil
	case "exit", "quit":
		return io.EOF
	// ----- users -----
	case "adduser":
		return c.commandAddUser(args)
	case "user":
		return c.commandUser(args)
	case "users":
		return c.commandUsers(args)
	case "deluser":
		return c.commandDeleteUser(args)
	// ----- packages -----
	case "addpkg":
		return c.commandAddPackage(args)
	case "pkgs":
		return c.commandPackages(args)
	case "delpkg":
		return c.commandDeletePackage(args)
	case "purge":
		return c.commandPurge(rest)
	// ----- reports -----
	case "addreport":
		return c.commandAddReport(rest)
	case "reports":
		return c.commandReports()
	case "delreport":
		return c.commandDeleteReport(args)
	// ----- diagnostics -----
	case "stats":
		return c.commandStats(args)
	case "tree":
		printTree(c.out, c.svc.PackagesStructure(), "", "")
		return nil
	case "check":
		if err := c.svc.CheckIntegrity(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(c.out, "ok")
		return nil
	case "clear":
		c.svc.Clear()
		_, _ = fmt.Fprintln(c.out, "cleared")
		return nil
	default:
		return fmt.Errorf("command unknown: %s", cmd)
	}
}

func usageError(format string) error {
	return fmt.Errorf("%w, usage: %s", ErrUsage, format)
}

func (c *Console) commandAddUser(args []string) error {
	if len(args) < 1 {
		return usageError("adduser <username> [full name]")
	}
	u := registry.User{Username: args[0], FullName: strings.Join(args[1:], " ")}
	if err := c.svc.AddUser(u); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.out, "added %s\n", u.Username)
	return nil
}

func (c *Console) commandUser(args []string) error {
	if len(args) != 1 {
		return usageError("user <username>")
	}
	u, ok := c.svc.GetUser(args[0])
	if !ok {
		return idxstore.NewError(idxstore.NotFound, args[0])
	}
	c.printUsers([]registry.User{u})
	return nil
}

func (c *Console) commandUsers(args []string) error {
	switch len(args) {
	case 0:
		c.printUsers(c.svc.Users())
	case 1:
		c.printUsers(c.svc.FindUsersByPrefix(args[0]))
	default:
		return usageError("users [prefix]")
	}
	return nil
}

func (c *Console) commandDeleteUser(args []string) error {
	if len(args) < 1 || len(args) > 2 || (len(args) == 2 && args[1] != "cascade") {
		return usageError("deluser <username> [cascade]")
	}
	n, err := c.svc.DeleteUser(args[0], len(args) == 2)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.out, "deleted %s and %d packages\n", args[0], n)
	return nil
}

func (c *Console) commandAddPackage(args []string) error {
	if len(args) < 3 {
		return usageError("addpkg <sender> <recipient> <weight> [description]")
	}
	w, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return usageError("addpkg <sender> <recipient> <weight> [description]")
	}
	p, err := c.svc.AddPackage(registry.Package{
		Sender:      args[0],
		Recipient:   args[1],
		Weight:      w,
		Description: strings.Join(args[3:], " "),
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.out, "added %s\n", p.ID)
	return nil
}

func (c *Console) commandPackages(args []string) error {
	if len(args) != 1 {
		return usageError("pkgs <sender>")
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tRECIPIENT\tWEIGHT\tDESCRIPTION")
	for _, p := range c.svc.PackagesFrom(args[0]) {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%g\t%s\n", p.ID, p.Recipient, p.Weight, p.Description)
	}
	return tw.Flush()
}

func (c *Console) commandDeletePackage(args []string) error {
	if len(args) != 2 {
		return usageError("delpkg <sender> <id>")
	}
	id, err := idxstore.ParseUUID(args[1])
	if err != nil {
		return idxstore.Errorf(idxstore.InvalidArgument, "package id: %v", err)
	}
	ok, err := c.svc.RemovePackage(args[0], id)
	if err != nil {
		return err
	}
	if !ok {
		return idxstore.NewError(idxstore.NotFound, args[1])
	}
	_, _ = fmt.Fprintf(c.out, "deleted %s\n", id)
	return nil
}

func (c *Console) commandPurge(rest string) error {
	sender, expr, ok := strings.Cut(rest, " ")
	if !ok || strings.TrimSpace(expr) == "" {
		return usageError("purge <sender> <expression>")
	}
	n, err := c.svc.RemovePackagesWhere(sender, strings.TrimSpace(expr))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.out, "purged %d packages\n", n)
	return nil
}

func (c *Console) commandAddReport(title string) error {
	if title == "" {
		return usageError("addreport <title>")
	}
	r, err := c.svc.AddReport(registry.Report{Title: title})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.out, "added %s\n", r.ID)
	return nil
}

func (c *Console) commandReports() error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCREATED\tTITLE")
	for _, r := range c.svc.Reports() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Created.Format("2006-01-02 15:04:05"), r.Title)
	}
	return tw.Flush()
}

func (c *Console) commandDeleteReport(args []string) error {
	if len(args) != 1 {
		return usageError("delreport <id>")
	}
	id, err := idxstore.ParseUUID(args[0])
	if err != nil {
		return idxstore.Errorf(idxstore.InvalidArgument, "report id: %v", err)
	}
	ok, err := c.svc.DeleteReport(id)
	if err != nil {
		return err
	}
	if !ok {
		return idxstore.NewError(idxstore.NotFound, args[0])
	}
	_, _ = fmt.Fprintf(c.out, "deleted %s\n", id)
	return nil
}

func (c *Console) commandStats(args []string) error {
	stats := c.svc.Stats()
	if len(args) == 1 {
		st, err := c.svc.StatsOf(args[0])
		if err != nil {
			return err
		}
		stats = []indexed.Stats{st}
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SET\tSHAPE\tRECORDS\tKEYS\tCAPACITY\tLOAD\tHEIGHT\tBLACK\tVALID\tEFFICIENCY\tRELOCATIONS")
	for _, st := range stats {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.2f\t%d\t%d\t%t\t%.2f\t%d\n",
			st.Name, st.Shape, st.Size, st.Keys, st.Capacity, st.LoadFactor,
			st.Height, st.BlackHeight, st.Valid, st.Efficiency, st.Relocations)
	}
	return tw.Flush()
}

func (c *Console) printUsers(users []registry.User) {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "USERNAME\tFULL NAME\tEMAIL")
	for _, u := range users {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Username, u.FullName, u.Email)
	}
	_ = tw.Flush()
}

// printTree draws the tree sideways, one node per line with its color.
func printTree(w io.Writer, n *rbtree.NodeView, indent, branch string) {
	if n == nil {
		if branch == "" {
			_, _ = fmt.Fprintln(w, "(empty)")
		}
		return
	}
	_, _ = fmt.Fprintf(w, "%s%s%s [%s]\n", indent, branch, n.Key, n.Color)
	child := indent
	if branch != "" {
		child += "   "
	}
	printTree(w, n.Left, child, "L─ ")
	printTree(w, n.Right, child, "R─ ")
}
