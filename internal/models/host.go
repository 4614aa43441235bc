package models

// HostComponents describes the machine this service runs on
type HostComponents struct {
	CPUModel      string  `json:"cpu_model"`
	VendorID      string  `json:"vendor_id"`
	Cores         int     `json:"cores"`
	Threads       int     `json:"threads"`
	MaxFrequency  float64 `json:"max_frequency_mhz"`
	RAMTotalGB    float64 `json:"ram_total_gb"`
	RAMDescriptor string  `json:"ram_descriptor"`
	Architecture  string  `json:"architecture"`
}
