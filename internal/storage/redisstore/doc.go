// Package redisstore implements the short-lived store on Redis, so several
// dashlink shells pointed at the same Redis share one return path.
package redisstore
