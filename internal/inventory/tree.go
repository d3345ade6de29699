package inventory

// BuildTree reduces a flat response into the nested language -> format ->
// date -> cinema tree. Cinema names come from the response dictionary when
// present, then from the item, then fall back to the id. A later item with
// the same (cinema, time) key replaces the earlier one.
func BuildTree(resp *Response) Tree {
	tree := make(Tree)
	if resp == nil {
		return tree
	}
	for i := range resp.Items {
		it := &resp.Items[i]

		ln, ok := tree[it.LanguageCode]
		if !ok {
			ln = make(LanguageNode)
			tree[it.LanguageCode] = ln
		}
		fn, ok := ln[it.FormatCode]
		if !ok {
			fn = make(FormatNode)
			ln[it.FormatCode] = fn
		}
		dn, ok := fn[it.Date]
		if !ok {
			dn = make(DateNode)
			fn[it.Date] = dn
		}
		cn, ok := dn[it.CinemaID]
		if !ok {
			cn = &CinemaNode{CinemaName: cinemaNameOf(resp, it), Shows: make(map[string]ShowInfo)}
			dn[it.CinemaID] = cn
		}
		cn.Shows[it.ShowTime] = ShowInfo{
			Price:          it.BasePrice,
			AvailableSeats: it.AvailableSeats,
			SeatClasses:    it.SeatClasses,
		}
	}
	return tree
}

func cinemaNameOf(resp *Response, it *ShowRecord) string {
	if meta, ok := resp.Dictionaries.Cinemas[it.CinemaID]; ok && meta.Name != "" {
		return meta.Name
	}
	if it.CinemaName != "" {
		return it.CinemaName
	}
	return it.CinemaID
}

// Shows counts every show stored in the tree.
func (t Tree) Shows() int {
	n := 0
	for _, ln := range t {
		for _, fn := range ln {
			for _, dn := range fn {
				for _, cn := range dn {
					n += len(cn.Shows)
				}
			}
		}
	}
	return n
}
