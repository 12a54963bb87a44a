package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/envlaunch/internal/config"
)

func sampleConfig(condaPath string) config.Config {
	return config.Config{
		Directory:   "/srv/app",
		Environment: "app",
		Script:      "main.py",
		EnvFile:     "environment.yaml",
		CondaPath:   condaPath,
	}
}

func TestBuildUnix(t *testing.T) {
	spec := Build(sampleConfig("/opt/conda"), Unix)

	assert.Equal(t, "/opt/conda/bin/conda", spec.Executable)
	assert.Equal(t, "/opt/conda/bin/conda env create -f environment.yaml", spec.Create.Invocation.String())
	assert.Equal(t, "/opt/conda/bin/conda env update -f environment.yaml --prune", spec.Update.Invocation.String())
	assert.Equal(t, "source /opt/conda/etc/profile.d/conda.sh && conda activate app && streamlit run main.py", spec.Run.Invocation.String())

	assert.False(t, spec.Create.Invocation.IsShell())
	assert.False(t, spec.Update.Invocation.IsShell())
	assert.True(t, spec.Run.Invocation.IsShell())
}

func TestBuildWindows(t *testing.T) {
	spec := Build(sampleConfig(`C:\opt\conda`), Windows)

	assert.Equal(t, `C:\opt\conda\condabin\conda.bat`, spec.Executable)
	assert.Equal(t, `C:\opt\conda\condabin\conda.bat env create -f environment.yaml`, spec.Create.Invocation.String())
	assert.Equal(t, `C:\opt\conda\condabin\conda.bat env update -f environment.yaml --prune`, spec.Update.Invocation.String())
	assert.Equal(t, `C:\opt\conda\condabin\conda.bat activate app && streamlit run main.py`, spec.Run.Invocation.String())
	assert.NotContains(t, spec.Run.Invocation.String(), "source")
}

func TestBuildWithoutCondaPath(t *testing.T) {
	unix := Build(sampleConfig(""), Unix)
	assert.Equal(t, "conda env create -f environment.yaml", unix.Create.Invocation.String())
	assert.Equal(t, `eval "$(conda shell.posix hook)" && conda activate app && streamlit run main.py`, unix.Run.Invocation.String())

	windows := Build(sampleConfig(""), Windows)
	assert.Equal(t, "conda activate app && streamlit run main.py", windows.Run.Invocation.String())
}

func TestBuildTrimsTrailingSeparators(t *testing.T) {
	assert.Equal(t, "/opt/conda/bin/conda", Executable("/opt/conda/", Unix))
	assert.Equal(t, `C:\conda\condabin\conda.bat`, Executable(`C:\conda\`, Windows))
}

func TestBuildIsDeterministic(t *testing.T) {
	for _, p := range []Platform{Unix, Windows} {
		first := Build(sampleConfig("/opt/conda"), p)
		second := Build(sampleConfig("/opt/conda"), p)
		assert.Equal(t, first, second, p.String())
	}
}

func TestStepsOrder(t *testing.T) {
	var names []string
	for _, step := range Build(sampleConfig("/opt/conda"), Unix).Steps() {
		names = append(names, step.Name)
	}
	assert.Equal(t, []string{StepCreate, StepUpdate, StepRun}, names)
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform("Windows")
	require.NoError(t, err)
	assert.Equal(t, Windows, p)

	p, err = ParsePlatform("linux")
	require.NoError(t, err)
	assert.Equal(t, Unix, p)

	p, err = ParsePlatform("auto")
	require.NoError(t, err)
	assert.Equal(t, Current(), p)

	_, err = ParsePlatform("plan9")
	assert.Error(t, err)
}
