package mongostore

import "net/url"

// redact hides the password of a connection string.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "<invalid uri>"
	}
	return u.Redacted()
}
