// Package service identifies utility-billing senders in a mailbox: it
// classifies known providers by type, detects candidate services from a
// window of messages, and re-matches messages to configured services during
// refresh.
package service

import (
	"regexp"
	"strings"
)

// Type is the closed set of service categories.
type Type string

const (
	TypeWater       Type = "water"
	TypeGas         Type = "gas"
	TypeElectricity Type = "electricity"
	TypeTelecom     Type = "telecom"
	TypeUnknown     Type = "unknown"
)

// Record is one monitored service as persisted in the configuration file.
// Immutable once created, except for a user-initiated rename of Name.
type Record struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Type          Type   `yaml:"type"`
	SampleFrom    string `yaml:"sample_from,omitempty"`
	SampleSubject string `yaml:"sample_subject,omitempty"`
}

// Detected is one service found during a mailbox scan.
type Detected struct {
	Name          string
	ID            string
	Type          Type
	SampleSubject string
	SampleFrom    string
	EmailCount    int
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives the stable identity key for a service name: lowercased,
// every run of non-alphanumeric characters collapsed to one underscore.
func Slug(name string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(name), "_")
}
