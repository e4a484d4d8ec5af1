// Package hybrid is an embeddable client for hybridsync: it keeps a hybrid
// (dense + BM25 sparse) copy of a dense-only vector collection and answers
// hybrid queries against it with reciprocal rank fusion.
//
// # Lifecycle
//
//	c, _ := hybrid.New(ctx,
//	    hybrid.WithQdrant("localhost", 6334, ""),
//	    hybrid.WithCollections("docs", "docs_hybrid"),
//	    hybrid.WithEmbedder(myEmbedder),
//	)
//	defer c.Close()
//
//	_ = c.Bootstrap(ctx)                 // create docs_hybrid if missing
//	rep, _ := c.Migrate(ctx, hybrid.MigrateOptions{})
//
// # Queries
//
//	results, _ := c.Recall(ctx, "leash training", map[string]any{
//	    "species": "dog", // matches metadata.species
//	})
//
// Recall returns at most NumberOfHybridItems results, each scoring at least
// HybridThreshold. Both come from the runtime settings (5 and 0.5 by default)
// and can be changed with UpdateSettings without reconnecting.
package hybrid
