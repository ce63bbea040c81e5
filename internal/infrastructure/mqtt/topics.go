package mqtt

import "fmt"

// DefaultTopicPrefix is used when the configuration leaves the prefix empty.
const DefaultTopicPrefix = "shabbatclock"

// Topics builds the topic tree below a single prefix.
//
//	<prefix>/status                 online/offline (retained, LWT)
//	<prefix>/snapshot               full status snapshot (retained)
//	<prefix>/mode                   relay mode (retained)
//	<prefix>/lock                   remote lock flag (retained)
//	<prefix>/command                inbound command vocabulary
//	<prefix>/relay/<device>/state   relay output state (retained)
//	<prefix>/relay/<device>/set     outbound relay command for a bridge
type Topics struct {
	Prefix string
}

// NewTopics returns Topics for prefix, falling back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

// Status returns the online/offline topic used for the Last Will.
func (t Topics) Status() string {
	return t.Prefix + "/status"
}

// Snapshot returns the topic carrying the full status snapshot.
func (t Topics) Snapshot() string {
	return t.Prefix + "/snapshot"
}

// Mode returns the relay mode topic.
func (t Topics) Mode() string {
	return t.Prefix + "/mode"
}

// Lock returns the remote lock flag topic.
func (t Topics) Lock() string {
	return t.Prefix + "/lock"
}

// Command returns the inbound command topic.
func (t Topics) Command() string {
	return t.Prefix + "/command"
}

// RelayState returns the state topic of a relay device.
//
// Example: shabbatclock/relay/relay-1/state
func (t Topics) RelayState(deviceID string) string {
	return fmt.Sprintf("%s/relay/%s/state", t.Prefix, deviceID)
}

// RelayCommand returns the topic a bridge listens on to drive the relay.
//
// Example: shabbatclock/relay/relay-1/set
func (t Topics) RelayCommand(deviceID string) string {
	return fmt.Sprintf("%s/relay/%s/set", t.Prefix, deviceID)
}

// All returns a wildcard matching every topic under the prefix.
func (t Topics) All() string {
	return t.Prefix + "/#"
}
