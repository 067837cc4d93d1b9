package cli

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/secretpipe/pkg/errors"
	"github.com/arthur-debert/secretpipe/pkg/filesystem"
	"github.com/arthur-debert/secretpipe/pkg/template"
)

type fakeDriver struct {
	answers       map[string]string
	inputCalls    int
	passwordCalls int
}

func (f *fakeDriver) Input(message string) (string, error) {
	f.inputCalls++
	return f.answers[message], nil
}

func (f *fakeDriver) Password(message string) (string, error) {
	f.passwordCalls++
	return f.answers[message], nil
}

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func baseOptions(output, tmpl string) Options {
	return Options{
		OutputPath:   output,
		TemplatePath: tmpl,
		Mode:         "600",
		Pattern:      template.DefaultPattern,
	}
}

func testDeps(driver *fakeDriver, stdout *bytes.Buffer) Deps {
	return Deps{
		FS:         filesystem.NewOS(),
		Driver:     driver,
		Stdout:     stdout,
		ConfigPath: "/nonexistent/secretpipe-config.toml",
	}
}

func TestRunToStdout(t *testing.T) {
	tmpl := writeTemplate(t, "Hello <%name%>, secret=<%*password%>")
	driver := &fakeDriver{answers: map[string]string{"name": "Bob", "password": "xyz"}}
	var stdout bytes.Buffer

	opts := baseOptions("-", tmpl)
	opts.ToFile = true

	require.NoError(t, Run(opts, testDeps(driver, &stdout)))
	assert.Equal(t, "Hello Bob, secret=xyz", stdout.String())
	assert.Equal(t, 1, driver.inputCalls)
	assert.Equal(t, 1, driver.passwordCalls)
}

func TestRunToFile(t *testing.T) {
	tmpl := writeTemplate(t, "token=<%*token%>\n")
	out := filepath.Join(t.TempDir(), "out.conf")
	driver := &fakeDriver{answers: map[string]string{"token": "s3cret"}}

	opts := baseOptions(out, tmpl)
	opts.ToFile = true
	opts.Mode = "640"
	opts.ModeChanged = true

	require.NoError(t, Run(opts, testDeps(driver, &bytes.Buffer{})))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "token=s3cret\n", string(data))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0640), info.Mode().Perm())
}

func TestRunTemplateWithoutPlaceholders(t *testing.T) {
	tmpl := writeTemplate(t, "static content\n")
	driver := &fakeDriver{}
	var stdout bytes.Buffer

	opts := baseOptions("-", tmpl)
	opts.ToFile = true

	require.NoError(t, Run(opts, testDeps(driver, &stdout)))
	assert.Equal(t, "static content\n", stdout.String())
	assert.Zero(t, driver.inputCalls)
	assert.Zero(t, driver.passwordCalls)
}

func TestRunRejectsBadModeBeforePrompting(t *testing.T) {
	tmpl := writeTemplate(t, "x=<%x%>")
	driver := &fakeDriver{}

	opts := baseOptions(filepath.Join(t.TempDir(), "out"), tmpl)
	opts.Mode = "9zz"
	opts.ModeChanged = true

	err := Run(opts, testDeps(driver, &bytes.Buffer{}))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrModeInvalid))
	assert.Zero(t, driver.inputCalls, "no prompting after a config error")
}

func TestRunRejectsUnreadableModeBeforePrompting(t *testing.T) {
	tmpl := writeTemplate(t, "x=<%x%>")
	driver := &fakeDriver{}

	opts := baseOptions(filepath.Join(t.TempDir(), "out"), tmpl)
	opts.Mode = "200"
	opts.ModeChanged = true

	err := Run(opts, testDeps(driver, &bytes.Buffer{}))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrModeUnreadable))
	assert.Zero(t, driver.inputCalls)
}

func TestRunMissingTemplate(t *testing.T) {
	opts := baseOptions("-", filepath.Join(t.TempDir(), "missing.tmpl"))
	opts.ToFile = true

	err := Run(opts, testDeps(&fakeDriver{}, &bytes.Buffer{}))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTemplateRead))
}

func TestEffectiveSettingsMergesConfigDefaults(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
mode = "640"
encoding = "ISO-8859-1"
poll_interval = "100ms"
`), 0600))

	deps := Deps{FS: filesystem.NewOS(), ConfigPath: cfgPath}

	opts := baseOptions("/tmp/out", "/tmp/in")
	s, err := effectiveSettings(opts, deps)
	require.NoError(t, err)

	assert.Equal(t, fs.FileMode(0640), s.mode)
	assert.Equal(t, "ISO-8859-1", s.encoding)
	assert.Equal(t, 100*time.Millisecond, s.poll)
	assert.Equal(t, template.DefaultPattern, s.pattern)
}

func TestEffectiveSettingsFlagsWinOverConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`mode = "640"`+"\n"), 0600))

	deps := Deps{FS: filesystem.NewOS(), ConfigPath: cfgPath}

	opts := baseOptions("/tmp/out", "/tmp/in")
	opts.Mode = "600"
	opts.ModeChanged = true

	s, err := effectiveSettings(opts, deps)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0600), s.mode)
}
