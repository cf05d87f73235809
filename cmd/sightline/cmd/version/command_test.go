package version

import (
	"bytes"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightline/cmd/application"
)

func TestVersion_Text(t *testing.T) {
	cmd := NewCommand(&application.Mock{VersionFunc: func() string { return "1.2.3" }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "sightline version 1.2.3")
	assert.Contains(t, out.String(), "commit: unknown")
	assert.Contains(t, out.String(), "platform: "+runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersion_JSON(t *testing.T) {
	cmd := NewCommand(&application.Mock{OutputFormatFunc: func() string { return "json" }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var info Info
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "test", info.BuiltBy)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}
