// Package stream reads and writes typed records as delimited text.
//
// A Reader[T] derives its schema from T, validates the header line when
// one is expected, and decodes one record per logical line:
//
//	r, err := stream.OpenReader[Metric]("metrics.tsv", stream.WithDialect(row.TSV))
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	for m, err := range r.All() {
//		if err != nil {
//			log.Printf("skipping: %v", err)
//			continue
//		}
//		process(m)
//	}
//
// A Writer[T] is the mirror image. Each record is assembled into a full
// line before anything is written, so an encoding failure never leaves a
// partial line behind.
//
// DynamicReader and DynamicWriter work from an explicit *schema.Schema and
// exchange *codec.Object values; they back the typeline command.
package stream
