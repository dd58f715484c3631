package models

import "time"

// NetworkEvent is one simulated connection record for the network
// monitor panel. The feed is demo data, not captured traffic.
type NetworkEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	SrcIP     string    `json:"src_ip"`
	DstIP     string    `json:"dst_ip"`
	SrcPort   int       `json:"src_port"`
	DstPort   int       `json:"dst_port"`
	Protocol  string    `json:"protocol"`
	Bytes     int       `json:"bytes"`
}
