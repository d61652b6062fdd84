package probe

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withProcFiles(t *testing.T, cpuinfo, meminfo string) {
	t.Helper()
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpuinfo")
	mem := filepath.Join(dir, "meminfo")
	require.NoError(t, os.WriteFile(cpu, []byte(cpuinfo), 0o644))
	require.NoError(t, os.WriteFile(mem, []byte(meminfo), 0o644))

	oldCPU, oldMem := cpuInfoPath, memInfoPath
	cpuInfoPath, memInfoPath = cpu, mem
	t.Cleanup(func() { cpuInfoPath, memInfoPath = oldCPU, oldMem })
}

func TestCollectHostReadsProc(t *testing.T) {
	withProcFiles(t,
		"processor\t: 0\nmodel name\t: AMD EPYC 7742 64-Core Processor\n",
		"MemTotal:       16777216 kB\nMemFree:         1024 kB\n",
	)

	now := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	host := CollectHost(now)

	assert.Equal(t, now, host.Timestamp)
	assert.Equal(t, "AMD EPYC 7742 64-Core Processor", host.CPUModel)
	assert.Equal(t, 16.0, host.TotalMemoryGB)
	assert.Equal(t, runtime.Version(), host.RuntimeVer)
	assert.NotEmpty(t, host.WorkingDir)
	assert.Equal(t, runtime.NumCPU(), host.NumCPU)
}

func TestCollectHostMissingProc(t *testing.T) {
	oldCPU, oldMem := cpuInfoPath, memInfoPath
	cpuInfoPath, memInfoPath = filepath.Join(t.TempDir(), "none"), filepath.Join(t.TempDir(), "none")
	t.Cleanup(func() { cpuInfoPath, memInfoPath = oldCPU, oldMem })

	host := CollectHost(time.Now())
	assert.Equal(t, "unknown", host.CPUModel)
	assert.Zero(t, host.TotalMemoryGB)
}
