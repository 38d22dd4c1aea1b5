package fusion

import "strings"

// portUnit accumulates every observation of one (port, protocol) pair on one
// host. Fields always hold the best-known value across the observations
// merged so far.
type portUnit struct {
	port       int
	protocol   string
	state      string
	service    string
	version    string
	product    string
	extraInfo  string
	scripts    []ScriptFinding
	hasVersion bool
	finalized  bool
}

func newPortUnit(obs PortObservation) *portUnit {
	u := &portUnit{
		port:      obs.Port,
		protocol:  obs.Protocol,
		state:     obs.State,
		service:   obs.Service,
		version:   obs.Version,
		product:   obs.Product,
		extraInfo: obs.ExtraInfo,
		scripts:   append([]ScriptFinding(nil), obs.Scripts...),
	}
	if u.state == "" {
		u.state = "open"
	}
	if u.service == "" {
		u.service = UnknownValue
	}
	if u.version == "" {
		u.version = UnknownValue
	}
	u.hasVersion = u.version != UnknownValue
	return u
}

// merge folds a duplicate observation into the unit. Longer service and
// version strings win; product is first-non-empty; scripts dedup by id.
// The "unknown" sentinel is treated as absent: any real value displaces it,
// and it never displaces anything.
func (u *portUnit) merge(obs PortObservation) {
	if obs.Service != "" && obs.Service != UnknownValue &&
		(u.service == UnknownValue || len(obs.Service) > len(u.service)) {
		u.service = obs.Service
	}

	if obs.Version != "" && obs.Version != UnknownValue &&
		(u.version == UnknownValue || len(obs.Version) > len(u.version)) {
		u.version = obs.Version
		u.hasVersion = true
	}

	if u.product == "" && obs.Product != "" {
		u.product = obs.Product
	}

	for _, script := range obs.Scripts {
		if !u.hasScript(script.ID) {
			u.scripts = append(u.scripts, script)
		}
	}
}

func (u *portUnit) hasScript(id string) bool {
	for _, existing := range u.scripts {
		if existing.ID == id {
			return true
		}
	}
	return false
}

// finalize composes the product and version fields into the reported version
// string. Guarded so repeated finalization cannot stack the product prefix.
// A version that already carries the product prefix (XML parsers emit the
// composed form) is left untouched.
func (u *portUnit) finalize() {
	if u.finalized {
		return
	}
	u.finalized = true

	if u.product == "" || strings.HasPrefix(u.version, u.product) {
		return
	}
	if u.version == UnknownValue {
		u.version = u.product
	} else {
		u.version = u.product + " " + u.version
	}
}

func (u *portUnit) key() PortKey {
	return PortKey{Port: u.port, Protocol: u.protocol}
}

func (u *portUnit) view() PortView {
	return PortView{
		Port:      u.port,
		Protocol:  u.protocol,
		State:     u.state,
		Service:   u.service,
		Version:   u.version,
		Product:   u.product,
		ExtraInfo: u.extraInfo,
		Scripts:   append([]ScriptFinding(nil), u.scripts...),
	}
}
