// Package assessmatch embeds the assessment recommendation pipeline in a Go program.
//
// A Client loads an assessment catalog, builds the tiered embedding chain
// (external API, local model, deterministic feature hashing) and answers
// hiring queries with a ranked, category-balanced shortlist.
//
//	client, err := assessmatch.New(ctx,
//	    assessmatch.WithCatalogFile("data/catalog.json"),
//	    assessmatch.WithTiers("secondary", "fallback"),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	res, err := client.Recommend(ctx, "Java developer who works with business teams")
//	for _, a := range res.Assessments {
//	    fmt.Println(a.Name, a.URL, a.Score)
//	}
//
// Without any option the client uses the bundled defaults: catalog at
// data/catalog.json and only the fallback tier enabled, so it runs offline
// and deterministically.
package assessmatch
