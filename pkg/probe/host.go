package probe

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
)

var (
	cpuInfoPath = "/proc/cpuinfo"
	memInfoPath = "/proc/meminfo"
)

// CollectHost gathers the identity of the machine and process. Fields that
// cannot be read are left empty.
func CollectHost(now time.Time) models.HostInfo {
	hostname, _ := os.Hostname()
	wd, _ := os.Getwd()
	exe, _ := os.Executable()

	return models.HostInfo{
		Hostname:      hostname,
		Timestamp:     now,
		WorkingDir:    wd,
		Executable:    exe,
		RuntimeVer:    runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		NumCPU:        runtime.NumCPU(),
		CPUModel:      cpuModel(),
		TotalMemoryGB: totalMemoryGB(),
	}
}

func cpuModel() string {
	data, err := os.ReadFile(cpuInfoPath)
	if err != nil {
		return "unknown"
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "model name") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1])
			}
		}
	}
	return "unknown"
}

func totalMemoryGB() float64 {
	data, err := os.ReadFile(memInfoPath)
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "MemTotal:") {
			var kb uint64
			fmt.Sscanf(line, "MemTotal: %d kB", &kb)
			return float64(kb) / (1024 * 1024)
		}
	}
	return 0
}
