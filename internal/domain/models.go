package domain

import (
	"fmt"
	"net"
	"strconv"
)

// Target is the printable part of a connection descriptor. It never carries
// the password.
type Target struct {
	Host     string `json:"host"`
	Port     uint16 `json:"port"`
	Database string `json:"database"`
	User     string `json:"user,omitempty"`
}

func (t Target) String() string {
	addr := net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
	if t.User == "" {
		return fmt.Sprintf("postgres://%s/%s", addr, t.Database)
	}
	return fmt.Sprintf("postgres://%s@%s/%s", t.User, addr, t.Database)
}
