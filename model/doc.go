// Package model defines stable boundary types for API layers.
//
// Protocol identity (canonical record bytes and event ids) is unaffected by
// any projection. These structs are the only types intended for direct
// JSON/YAML serialization by consumers.
package model
