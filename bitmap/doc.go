// Package bitmap is a thin facade over native bitmaps that exercises the
// lifetime core: every Bitmap is an arena member backed by a header block in
// the foreign heap, and every derived buffer is a memory view.
//
//	bm, err := bitmap.New(eng)
//	if err != nil {
//	    return err
//	}
//	defer bm.Dispose()
//	_ = bm.Add(3, 1, 2)
//	for v := range bm.Values() {
//	    fmt.Println(v) // 1 2 3
//	}
package bitmap
