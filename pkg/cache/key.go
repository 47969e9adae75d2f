package cache

// keyPrefix namespaces scamfeed entries within a shared redis instance.
const keyPrefix = "scamfeed:page:"

// Key derives the redis key for one endpoint URL. Endpoints are already
// absolute and unique within a batch, so the URL itself is the key.
func Key(endpoint string) string {
	return keyPrefix + endpoint
}
