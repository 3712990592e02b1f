// Package output renders content trees as YAML or JSON and writes them to
// their destination.
//
//   - Serialization (serializer.go): [Serialize] with a configurable
//     format and indentation. Output always ends with a newline.
//
//   - Writers (writer.go): the [Writer] interface with [StdoutWriter] and
//     [FileWriter]. FileWriter replaces its target atomically so watchers
//     never observe a half-written file.
package output
