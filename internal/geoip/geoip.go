// Package geoip resolves client IPs to a country code for the login audit
// trail. A missing or unreadable database disables lookups rather than
// failing startup.
package geoip

import (
	"log/slog"
	"net"

	"github.com/oschwald/maxminddb-golang"
)

type Resolver struct {
	db *maxminddb.Reader
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

func New(dbPath string) *Resolver {
	if dbPath == "" {
		return &Resolver{}
	}
	db, err := maxminddb.Open(dbPath)
	if err != nil {
		slog.Warn("geoip: failed to open database, country lookups disabled", "path", dbPath, "error", err)
		return &Resolver{}
	}
	slog.Info("geoip: loaded database", "path", dbPath)
	return &Resolver{db: db}
}

// Country returns the ISO country code for ipStr, or "" when unknown.
func (r *Resolver) Country(ipStr string) string {
	if r.db == nil || ipStr == "" {
		return ""
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	var record countryRecord
	if err := r.db.Lookup(ip, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

func (r *Resolver) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
