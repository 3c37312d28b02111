package console

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcode/idxstore"
	"github.com/sharedcode/idxstore/registry"
)

func newConsole(t *testing.T) (*Console, *registry.Service, *bytes.Buffer) {
	t.Helper()
	svc, err := registry.New(idxstore.DefaultOptions())
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return New(svc, out), svc, out
}

func run(t *testing.T, c *Console, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	require.NoError(t, c.Execute(line), line)
	return out.String()
}

func TestUserCommands(t *testing.T) {
	c, svc, out := newConsole(t)

	assert.Equal(t, "added alice\n", run(t, c, out, "adduser alice Alice Liddell"))
	run(t, c, out, "adduser albert")
	run(t, c, out, "adduser bob")
	u, ok := svc.GetUser("alice")
	require.True(t, ok)
	assert.Equal(t, "Alice Liddell", u.FullName)

	s := run(t, c, out, "users al")
	assert.Contains(t, s, "alice")
	assert.Contains(t, s, "albert")
	assert.NotContains(t, s, "bob")
	assert.Contains(t, run(t, c, out, "user bob"), "bob")

	err := c.Execute("user zed")
	assert.True(t, idxstore.HasCode(err, idxstore.NotFound))
	assert.ErrorIs(t, c.Execute("adduser"), ErrUsage)
	assert.True(t, idxstore.HasCode(c.Execute("adduser bob"), idxstore.DuplicateKey))
}

func TestPackageCommands(t *testing.T) {
	c, svc, out := newConsole(t)
	run(t, c, out, "adduser alice")
	run(t, c, out, "adduser bob")
	run(t, c, out, "addpkg alice bob 2.5 books")
	run(t, c, out, "addpkg alice bob 40 piano")
	assert.ErrorIs(t, c.Execute("addpkg alice bob heavy"), ErrUsage)

	s := run(t, c, out, "pkgs alice")
	assert.Contains(t, s, "books")
	assert.Contains(t, s, "piano")

	assert.True(t, idxstore.HasCode(c.Execute("deluser alice"), idxstore.DependentsExist))
	assert.Equal(t, "purged 1 packages\n", run(t, c, out, "purge alice record.weight > 10.0"))
	assert.ErrorIs(t, c.Execute("purge alice"), ErrUsage)

	pkgs := svc.PackagesFrom("alice")
	require.Len(t, pkgs, 1)
	assert.True(t, idxstore.HasCode(c.Execute("delpkg alice "+idxstore.NewUUID().String()), idxstore.NotFound))
	assert.True(t, idxstore.HasCode(c.Execute("delpkg alice nope"), idxstore.InvalidArgument))
	run(t, c, out, "delpkg alice "+pkgs[0].ID.String())
	assert.Empty(t, svc.PackagesFrom("alice"))

	run(t, c, out, "addpkg alice bob 1")
	assert.Equal(t, "deleted alice and 1 packages\n", run(t, c, out, "deluser alice cascade"))
	assert.ErrorIs(t, c.Execute("deluser bob now"), ErrUsage)
}

func TestReportCommands(t *testing.T) {
	c, svc, out := newConsole(t)
	run(t, c, out, "addreport weekly summary")
	reports := svc.Reports()
	require.Len(t, reports, 1)
	assert.Equal(t, "weekly summary", reports[0].Title)
	assert.Contains(t, run(t, c, out, "reports"), "weekly summary")
	run(t, c, out, "delreport "+reports[0].ID.String())
	assert.Empty(t, svc.Reports())
	assert.ErrorIs(t, c.Execute("addreport"), ErrUsage)
}

func TestDiagnosticCommands(t *testing.T) {
	c, _, out := newConsole(t)
	assert.Equal(t, "(empty)\n", run(t, c, out, "tree"))
	for _, u := range []string{"a", "b", "c"} {
		run(t, c, out, "adduser "+u)
		run(t, c, out, "addpkg "+u+" x 1")
	}
	tree := run(t, c, out, "tree")
	lines := strings.Split(strings.TrimSpace(tree), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "b [BLACK]", lines[0])
	assert.Contains(t, lines[1], "L─ a [RED]")
	assert.Contains(t, lines[2], "R─ c [RED]")

	s := run(t, c, out, "stats")
	assert.Contains(t, s, "users")
	assert.Contains(t, s, "packages")
	s = run(t, c, out, "stats packages")
	assert.NotContains(t, s, "users")
	assert.True(t, idxstore.HasCode(c.Execute("stats nope"), idxstore.NotFound))

	assert.Equal(t, "ok\n", run(t, c, out, "check"))
	assert.Equal(t, "cleared\n", run(t, c, out, "clear"))
	assert.Contains(t, run(t, c, out, "users"), "USERNAME")
	assert.Contains(t, run(t, c, out, "help"), "commands:")
	assert.Empty(t, run(t, c, out, "   "))
}

func TestExitAndUnknown(t *testing.T) {
	c, _, _ := newConsole(t)
	assert.ErrorIs(t, c.Execute("exit"), io.EOF)
	assert.ErrorIs(t, c.Execute("quit"), io.EOF)
	assert.ErrorContains(t, c.Execute("frobnicate"), "command unknown")
}
