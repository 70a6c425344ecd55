package models

// SyncCredentials holds everything needed to talk to Nalda: the API key for
// the order endpoint and the transfer account for the CSV feed channel.
// Owned by configuration; pipelines fail fast when their half is incomplete.
type SyncCredentials struct {
	Host     string
	Port     int
	Username string
	Secret   string
	APIKey   string
}

// TransferComplete reports whether the CSV feed channel can be used.
func (c SyncCredentials) TransferComplete() bool {
	return c.Host != "" && c.Port > 0 && c.Username != "" && c.Secret != ""
}

// APIComplete reports whether the order endpoint can be used.
func (c SyncCredentials) APIComplete() bool {
	return c.APIKey != ""
}
