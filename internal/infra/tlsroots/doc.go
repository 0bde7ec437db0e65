// Package tlsroots builds the root CA pool for the client transport: the
// system roots plus an optional PEM bundle (tls.ca_file).
package tlsroots
