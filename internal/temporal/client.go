package temporal

import (
	"crypto/tls"
	"log/slog"

	"go.temporal.io/sdk/client"
)

// ClientOptions builds dial options for a Temporal frontend. A non-empty
// apiKey enables TLS with static API key credentials.
func ClientOptions(hostPort, namespace, apiKey string, logger *slog.Logger) client.Options {
	opts := client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	}
	if logger != nil {
		opts.Logger = logger
	}
	if apiKey != "" {
		opts.Credentials = client.NewAPIKeyStaticCredentials(apiKey)
		opts.ConnectionOptions = client.ConnectionOptions{TLS: &tls.Config{MinVersion: tls.VersionTLS12}}
	}
	return opts
}
