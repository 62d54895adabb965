// Package georecon embeds the place-name reconciliation engine in a Go program.
//
// An Engine loads a gazetteer once, indexes it and answers reconciliation
// batches, autocomplete and entity lookups in-process, without the HTTP layer.
//
//	eng, _ := georecon.New(ctx, georecon.WithFile("cities15000.zip"))
//	defer eng.Close()
//
//	res, _ := eng.Reconcile(ctx, map[string]georecon.Query{
//	    "q0": {Text: "Paris", Types: []string{"P"}},
//	    "q1": {Text: "Lodnon", Limit: 3},
//	})
//	for _, c := range res["q0"].Candidates {
//	    fmt.Println(c.ID, c.Name, c.Score, c.Match)
//	}
//
// Records can be moved out of process with WithRedis; the index stays local
// and candidates are resolved through pipelined reads.
package georecon
