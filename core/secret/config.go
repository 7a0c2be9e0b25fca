package secret

// Config holds the key material used to encrypt provider credentials at rest.
type Config struct {
	// EncryptionKey is a base64 (standard encoding) 32-byte key.
	EncryptionKey string `mapstructure:"encryption_key" default:""`
}
