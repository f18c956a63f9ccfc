// Package collate packs many independent files ("resources") into a small
// number of large collated page files and serves random-access reads of any
// single resource back out of them.
//
// A collated family consists of:
//   - Page files named "<base>.0", "<base>.1", ... holding resource bytes back to back.
//     With a page size set, a resource that does not fit continues in the next page.
//   - A table of contents: a text ledger with one line per resource,
//     "resource_path,base_path,page_index,offset,size".
//
// # Packing
//
//	toc := collate.NewTableOfContents("assets.toc")
//	c, err := collate.NewCollator(toc, "assets.col", collate.WithPageSize(64<<20))
//	if err != nil {
//	    return err
//	}
//	c.AddResource("textures/stone.png")
//	if err := c.Execute(ctx); err != nil {
//	    c.Revert()
//	    return err
//	}
//	err = toc.Write()
//
// # Reading
//
//	acc, err := collate.NewAccessor("assets.toc", collate.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	r, err := collate.OpenReader("textures/stone.png", acc)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
// A Reader is an io.ReadSeekCloser whose positions are relative to the
// resource, not to any page file. Resources the Accessor does not know are
// read from their real path, so code can run unchanged against unpacked
// trees; WithRealResources forces that behavior for every resource.
//
// The engine is synchronous and single-writer. An Accessor is read-only once
// loaded and may back concurrent Readers; each Reader is used by one
// goroutine at a time.
package collate
