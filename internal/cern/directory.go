package cern

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

// ldapUserAttributes are requested for every directory lookup.
var ldapUserAttributes = []string{ //nolint:gochecknoglobals
	"memberOf",
	"displayName",
	"department",
	"name",
	"description",
	"uidNumber",
	"employeeID",
	"postOfficeBox",
	"gidNumber",
	"mail",
	"physicalDeliveryOfficeName",
	"cernInstituteName",
	"cernSection",
	"division",
	"cn",
}

// Conn is the subset of *ldap.Conn used by Directory.
type Conn interface {
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// Dialer opens a directory connection.
type Dialer func(ctx context.Context, cfg LDAPConfig) (Conn, error)

// DirectoryLookup resolves a user resource by email address.
type DirectoryLookup interface {
	LookupByEmail(ctx context.Context, email string) Resource
}

// Directory queries the LDAP directory. Every lookup dials a fresh connection
// and closes it before returning.
type Directory struct {
	config LDAPConfig
	dial   Dialer
}

// NewDirectory creates a directory client dialing cfg.URL.
func NewDirectory(cfg LDAPConfig) *Directory {
	return NewDirectoryWithDialer(cfg, DialLDAP)
}

// NewDirectoryWithDialer creates a directory client using dial to connect.
func NewDirectoryWithDialer(cfg LDAPConfig, dial Dialer) *Directory {
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultLDAPPageSize
	}

	if cfg.BaseDN == "" {
		cfg.BaseDN = DefaultLDAPBaseDN
	}

	return &Directory{config: cfg, dial: dial}
}

// DialLDAP connects to cfg.URL anonymously.
func DialLDAP(ctx context.Context, cfg LDAPConfig) (Conn, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}

	conn, err := ldap.DialURL(cfg.URL, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	conn.SetTimeout(timeout)

	return conn, nil
}

// LookupByEmail searches the directory for email. It never fails: lookup
// errors and entries whose mail differs from email (ignoring case) yield a
// resource with empty values.
func (d *Directory) LookupByEmail(ctx context.Context, email string) Resource {
	if email == "" {
		return Resource{}
	}

	entry := d.search(ctx, email)
	if entry != nil && !strings.EqualFold(entry.GetAttributeValue("mail"), email) {
		log.Debug().
			Str("email", email).
			Str("mail", entry.GetAttributeValue("mail")).
			Msg("directory entry does not match the queried email")

		entry = nil
	}

	displayName := attribute(entry, "displayName")
	department := attribute(entry, "department")

	return Resource{
		FieldGroup:         memberOfGroups(entry),
		FieldCommonName:    attribute(entry, "cn"),
		FieldFirstname:     displayName,
		FieldLastname:      displayName,
		FieldDisplayName:   displayName,
		FieldEmail:         {email},
		FieldBuilding:      attribute(entry, "physicalDeliveryOfficeName"),
		FieldDepartment:    department,
		FieldPersonID:      attribute(entry, "employeeID"),
		FieldIdentityClass: department,
		FieldUIDNumber:     attribute(entry, "uidNumber"),
		FieldHomeInstitute: attribute(entry, "cernInstituteName"),
	}
}

func (d *Directory) search(ctx context.Context, email string) *ldap.Entry {
	conn, err := d.dial(ctx, d.config)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("directory lookup failed")

		return nil
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Error().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	req := ldap.NewSearchRequest(
		d.config.BaseDN,
		ldap.ScopeSingleLevel,
		ldap.NeverDerefAliases,
		0,
		int(d.config.Timeout/time.Second),
		false,
		fmt.Sprintf("(mail=*%s*)", ldap.EscapeFilter(email)),
		ldapUserAttributes,
		[]ldap.Control{ldap.NewControlPaging(d.config.PageSize)},
	)

	result, err := conn.Search(req)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("directory search failed")

		return nil
	}

	if result == nil || len(result.Entries) == 0 {
		log.Debug().Str("email", email).Msg("directory search returned no entries")

		return nil
	}

	return result.Entries[0]
}

// attribute returns the first value of name decoded as text, or [""] when missing.
func attribute(entry *ldap.Entry, name string) []string {
	if entry == nil {
		return []string{""}
	}

	raw := entry.GetRawAttributeValues(name)
	if len(raw) == 0 {
		return []string{""}
	}

	return []string{string(raw[0])}
}

// memberOfGroups extracts the first RDN value of every memberOf DN.
func memberOfGroups(entry *ldap.Entry) []string {
	groups := []string{}
	if entry == nil {
		return groups
	}

	for _, raw := range entry.GetRawAttributeValues("memberOf") {
		if g := firstRDNValue(string(raw)); g != "" {
			groups = append(groups, g)
		}
	}

	return groups
}

func firstRDNValue(dn string) string {
	parsed, err := ldap.ParseDN(dn)
	if err == nil && len(parsed.RDNs) > 0 && len(parsed.RDNs[0].Attributes) > 0 {
		return parsed.RDNs[0].Attributes[0].Value
	}

	rdn, _, _ := strings.Cut(dn, ",")
	_, value, ok := strings.Cut(rdn, "=")

	if !ok {
		return ""
	}

	return value
}
