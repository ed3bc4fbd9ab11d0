// Package polisearch provides an embedded client for the polisearch
// hybrid retrieval engine: KNN search over Postgres/pgvector fused with
// a BM25 rerank driven by layered conversational memory.
//
// The client wires the same pipeline the HTTP server runs, without the
// network hop. It is intended for orchestrators living in the same
// process, such as the conversation pipeline that feeds retrieved
// snippets into answer generation.
//
//	client, err := polisearch.New(
//	    polisearch.WithPostgres(os.Getenv("DATABASE_URL")),
//	    polisearch.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Retrieve(ctx, polisearch.Request{
//	    Query:   "임플란트 지원 되나요?",
//	    Profile: &polisearch.Profile{RegionCode: "서울특별시 동작구"},
//	})
//	for _, s := range res.Snippets {
//	    fmt.Println(s.Title, s.Score)
//	}
//
// Sermon retrieval runs over the same store with a mode-anchored query:
//
//	refs, err := client.SearchSermons(ctx, polisearch.SermonRequest{
//	    Query: "고난 속의 소망",
//	    Mode:  polisearch.ModeCounseling,
//	})
package polisearch
