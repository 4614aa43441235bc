package services

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"rigcheck/internal/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const GB = 1024 * 1024 * 1024

// standardCapacities are retail memory kit sizes in GB
var standardCapacities = []int{4, 8, 12, 16, 24, 32, 48, 64, 96, 128, 192, 256}

// HostProbe reads hardware facts. Tests replace the functions.
type HostProbe struct {
	CPUInfo       func() ([]cpu.InfoStat, error)
	CPUCounts     func(logical bool) (int, error)
	VirtualMemory func() (*mem.VirtualMemoryStat, error)
}

// DefaultHostProbe uses gopsutil against the running machine
func DefaultHostProbe() HostProbe {
	return HostProbe{
		CPUInfo:       cpu.Info,
		CPUCounts:     cpu.Counts,
		VirtualMemory: mem.VirtualMemory,
	}
}

// HostService describes the machine the service runs on
type HostService struct {
	probe   HostProbe
	ramType string
}

// NewHostService creates a host service. ramType (e.g. "DDR4-3200") completes
// the RAM descriptor because memory type is not portably detectable.
func NewHostService(probe HostProbe, ramType string) *HostService {
	return &HostService{probe: probe, ramType: strings.TrimSpace(ramType)}
}

// Detect returns CPU model and RAM descriptor for this machine
func (h *HostService) Detect() (*models.HostComponents, error) {
	infos, err := h.probe.CPUInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get CPU info: %w", err)
	}
	if len(infos) == 0 {
		return nil, errors.New("no CPU info reported")
	}

	vm, err := h.probe.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to get memory info: %w", err)
	}

	cores, err := h.probe.CPUCounts(false)
	if err != nil {
		slog.Warn("could not get physical core count", "error", err)
		cores = 0
	}
	threads, err := h.probe.CPUCounts(true)
	if err != nil {
		slog.Warn("could not get logical core count", "error", err)
		threads = 0
	}

	model := strings.TrimSpace(infos[0].ModelName)
	if model == "" {
		model = "unknown"
	}
	totalGB := float64(vm.Total) / GB

	return &models.HostComponents{
		CPUModel:      model,
		VendorID:      infos[0].VendorID,
		Cores:         cores,
		Threads:       threads,
		MaxFrequency:  infos[0].Mhz,
		RAMTotalGB:    totalGB,
		RAMDescriptor: ramDescriptor(totalGB, h.ramType),
		Architecture:  runtime.GOARCH,
	}, nil
}

// ramDescriptor rounds the usable total up to the installed kit size.
// Firmware and integrated graphics reserve some memory, so 15.6 GB usable is a 16GB kit.
func ramDescriptor(totalGB float64, ramType string) string {
	capacity := standardCapacities[len(standardCapacities)-1]
	for _, c := range standardCapacities {
		if float64(c) >= totalGB*0.9 {
			capacity = c
			break
		}
	}
	if ramType == "" {
		return fmt.Sprintf("%dGB", capacity)
	}
	return fmt.Sprintf("%dGB %s", capacity, ramType)
}
