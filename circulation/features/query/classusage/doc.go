// Package classusage implements the Class Usage Report query: per class, how many loans its
// students made (active and returned) and which books they borrowed most.
package classusage
