// Package yamlpath implements YAML Path, a path expression language for
// addressing nodes inside parsed YAML documents, and a processor that
// resolves such paths to retrieve, create, change, or delete nodes while
// preserving anchors, aliases, tags, and formatting.
//
// Supported grammar:
//   - Dot `.` and forward-slash `/` separators, auto-detected from a
//     leading `/`
//   - Keys, bare integer indices, bracketed indices `[0]` and slices
//     `[start:end]`, anchors `&name` / `[&name]`
//   - Searches `[key<op>term]` where:
//     <op>  →  =  !=  ^  $  %  =~  >  <  >=  <=
//     and `key` may be `.` (the candidate itself) or a nested sub-path
//   - Wildcards `*`, key splats `pre*`, `*post`, `p*t`, traversal `**`
//   - Collectors `(subpath)` combined with `+` and `-`
//   - Backslash escapes and single/double quoted literal keys
//
// Evaluation is lazy: Processor.GetNodes yields NodeCoords as they match and
// stops visiting the document when the consumer stops iterating. Documents
// are supplied through the Document capability interface; the yamlnode
// subpackage adapts gopkg.in/yaml.v3 trees.
package yamlpath
