package queue

import "time"

// ResolveIdentity decides the final task name for a scheduling call.
//
//   - dedup off, no name: no identity, the transport treats each submission as unique
//   - dedup off, name:    the caller name, unsuffixed
//   - dedup on,  no name: content fingerprint of the payload
//   - dedup on,  name:    the caller name
//
// With a positive window, both dedup-on identities get the window boundary suffix.
// The boolean result is false when no identity applies.
func ResolveIdentity(cfg TaskConfig, name string, payload any, now time.Time) (string, bool, error) {
	if err := cfg.Validate(); err != nil {
		return "", false, err
	}

	if !cfg.Effective() {
		if name == "" {
			return "", false, nil
		}
		return name, true, nil
	}

	identity := name
	if identity == "" {
		fp, err := DeriveIdentity(payload)
		if err != nil {
			return "", false, err
		}
		identity = fp
	}

	if cfg.DeduplicationWindowSeconds > 0 {
		identity += windowSuffix(now, cfg.DeduplicationWindowSeconds)
	}

	return identity, true, nil
}
