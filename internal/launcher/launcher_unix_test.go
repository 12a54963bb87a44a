//go:build unix

package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// installFakeConda lays out bin/conda and etc/profile.d/conda.sh under a
// temporary root. Every call is appended to calls.txt in the working
// directory. `env create` exits 1, as it does for an existing environment.
func installFakeConda(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc", "profile.d"), 0o755))

	conda := `#!/bin/sh
echo "conda $*" >> calls.txt
if [ "$2" = "create" ]; then
  exit 1
fi
exit 0
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "conda"), []byte(conda), 0o755))

	hook := `conda() { echo "conda $*" >> calls.txt; }
streamlit() { echo "streamlit $*" >> calls.txt; }
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "profile.d", "conda.sh"), []byte(hook), 0o644))
	return root
}

func TestRunDispatchesRealProcesses(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
	condaRoot := installFakeConda(t)
	f := newFixture(t, fmt.Sprintf(`
directory = "project"
environment = "app"
script = "main.py"
env_file = "environment.yaml"
conda_path = %q
`, condaRoot))
	opts := f.options()
	opts.NewDispatcher = nil

	res := f.run(t, opts)

	require.Equal(t, StateDone, res.State, "err: %v", res.Err)
	assert.Equal(t, ExitOK, res.Code)
	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, 1, res.Outcomes[0].ExitCode)
	assert.True(t, res.Outcomes[1].Succeeded())
	assert.True(t, res.Outcomes[2].Succeeded())

	data, err := os.ReadFile(filepath.Join(f.root, "project", "calls.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"conda env create -f environment.yaml",
		"conda env update -f environment.yaml --prune",
		"conda activate app",
		"streamlit run main.py",
	}, strings.Split(strings.TrimRight(string(data), "\n"), "\n"))

	lines := f.logLines(t)
	assert.Len(t, linesContaining(lines, "ERROR Conda environment creation failed with exit code 1"), 1)
	assert.Len(t, linesContaining(lines, "INFO  Conda environment updated successfully"), 1)
	assert.Len(t, linesContaining(lines, "INFO  Streamlit app finished successfully"), 1)
	assert.Len(t, linesContaining(lines, "Script completed."), 1)
}
