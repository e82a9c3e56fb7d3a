// Package config loads the forum's JSON configuration file with viper,
// publishes it as an immutable snapshot behind an atomic pointer (§5: "one
// atomic shared pointer ... readers never block on a reload"), and
// optionally re-publishes a fresh snapshot when fsnotify reports the file
// changed underneath a running process.
package config

import (
	"strconv"

	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/httpserver"
	"github.com/danij/Forum-sub001/internal/store"
)

// ServiceConfig is the §6.4 "service" group.
type ServiceConfig struct {
	NumberOfIOServiceThreads         int
	NumberOfReadBuffers              int
	NumberOfWriteBuffers             int
	MaxConnections                   int
	ListenIPAddress                  string
	ListenPort                       int
	ConnectionTimeoutSeconds         int64
	TrustIPFromXForwardedFor         bool
	DisableCommands                  bool
	DisableCommandsForAnonymousUsers bool
	DisableThrottling                bool
	ResponsePrefix                   string
	ExpectedOriginReferer            string
}

// PersistenceConfig is the §6.4 "persistence" group.
type PersistenceConfig struct {
	InputFolder                     string
	OutputFolder                    string
	MessagesFile                    string
	ValidateChecksum                bool
	CreateNewOutputFileEverySeconds int64
	PersistIPAddresses               bool
	FsyncEverySeconds                int64
}

// PrivilegeDefault is one entry of the defaultPrivileges/
// defaultPrivilegeGrants groups: a numeric default for a named privilege.
type PrivilegeDefault struct {
	Privilege entities.Privilege
	Value     int
}

// Config is one complete, validated, immutable configuration snapshot.
// Every field a repository or the HTTP layer reads comes from here —
// nothing is read from viper directly outside this package (§5).
type Config struct {
	Limits     store.Limits
	Service    ServiceConfig
	Persistence PersistenceConfig
	Throttle   map[authz.ActionClass]authz.ThrottleConfig

	DefaultRequiredPrivileges entities.RequiredPrivilegeTable
	DefaultPrivilegeGrants    []PrivilegeDefault
}

// HTTPServerConfig derives an httpserver.Config from the service group plus
// a listen address assembled from ListenIPAddress/ListenPort.
func (c Config) HTTPServerConfig() httpserver.Config {
	return httpserver.Config{
		ListenAddr:         joinHostPort(c.Service.ListenIPAddress, c.Service.ListenPort),
		ReadBufferCount:    c.Service.NumberOfReadBuffers,
		ReadBufferSize:     64 * 1024,
		WriteBufferCount:   c.Service.NumberOfWriteBuffers,
		WriteBufferSize:    64 * 1024,
		MaxConnections:     c.Service.MaxConnections,
		IdleTimeoutSeconds: c.Service.ConnectionTimeoutSeconds,
		TrustedProxy:       c.Service.TrustIPFromXForwardedFor,
		ResponsePrefix:     c.Service.ResponsePrefix,
	}
}

func joinHostPort(ip string, port int) string {
	return ip + ":" + strconv.Itoa(port)
}
