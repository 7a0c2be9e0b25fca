// Package redis opens the go-redis client backing the distributed sync lock.
package redis
