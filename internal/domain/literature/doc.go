// Package literature contains the Literature bounded context: publication
// metadata found by a keyword search against a bibliographic database.
package literature
