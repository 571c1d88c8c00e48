package gradedomain

import (
	"strconv"
	"strings"
)

const (
	// DefaultTerminalRoleName is the exact role name mapped to Alumni.
	DefaultTerminalRoleName = "[ALUMNI]"

	bracketOpen  = "["
	bracketClose = "]"
)

// Role is the part of a platform role the catalog needs.
type Role struct {
	ID   string
	Name string
}

// CatalogEntry maps one marker to the role that represents it.
type CatalogEntry struct {
	Marker Marker
	RoleID string
}

// Catalog maps markers to role ids, preserving the order in which markers
// were first seen in the guild's role list.
type Catalog struct {
	entries []CatalogEntry
	index   map[Marker]int
}

// ResolveCatalog builds a catalog from a guild's roles. A role named exactly
// terminalName maps to Alumni; a role named "[<integer>]" maps to that
// grade. Everything else is skipped. When two roles map to the same marker
// the later one wins but keeps the earlier position.
func ResolveCatalog(roles []Role, terminalName string) *Catalog {
	c := &Catalog{index: make(map[Marker]int)}
	for _, role := range roles {
		marker, ok := parseRoleName(role.Name, terminalName)
		if !ok {
			continue
		}
		c.put(marker, role.ID)
	}
	return c
}

func parseRoleName(name, terminalName string) (Marker, bool) {
	if name == terminalName {
		return Alumni, true
	}
	if len(name) < 2 || !strings.HasPrefix(name, bracketOpen) || !strings.HasSuffix(name, bracketClose) {
		return Marker{}, false
	}
	inner := strings.TrimSpace(name[len(bracketOpen) : len(name)-len(bracketClose)])
	g, err := strconv.Atoi(inner)
	if err != nil {
		return Marker{}, false
	}
	return Grade(g), true
}

func (c *Catalog) put(m Marker, roleID string) {
	if i, ok := c.index[m]; ok {
		c.entries[i].RoleID = roleID
		return
	}
	c.index[m] = len(c.entries)
	c.entries = append(c.entries, CatalogEntry{Marker: m, RoleID: roleID})
}

// RoleFor returns the role id for m.
func (c *Catalog) RoleFor(m Marker) (string, bool) {
	i, ok := c.index[m]
	if !ok {
		return "", false
	}
	return c.entries[i].RoleID, true
}

// MarkerFor returns the first marker, in insertion order, mapped to roleID.
func (c *Catalog) MarkerFor(roleID string) (Marker, bool) {
	if roleID == "" {
		return Marker{}, false
	}
	for _, e := range c.entries {
		if e.RoleID == roleID {
			return e.Marker, true
		}
	}
	return Marker{}, false
}

// FirstHeld returns the first entry, in insertion order, whose role is in
// heldRoleIDs.
func (c *Catalog) FirstHeld(heldRoleIDs []string) (CatalogEntry, bool) {
	held := make(map[string]struct{}, len(heldRoleIDs))
	for _, id := range heldRoleIDs {
		held[id] = struct{}{}
	}
	for _, e := range c.entries {
		if _, ok := held[e.RoleID]; ok {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// Entries returns a copy of the entries in insertion order.
func (c *Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }
