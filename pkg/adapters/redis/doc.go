// Package redis stores sessions in Redis and serializes them across replicas
// with a SET NX lock.
package redis
