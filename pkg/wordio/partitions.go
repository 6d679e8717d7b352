package wordio

// Partitions splits r (the whole file when nil) into parts consecutive ranges and
// returns one WordStream per range. Each stream opens its own file handle, so the
// streams may be consumed in parallel.
func Partitions(path string, parts int, r *ByteRange, windowsize int) ([]*WordStream, error) {
	whole, size, err := resolveRange(path, r)
	if err != nil {
		return nil, err
	}
	ranges, err := SplitByCount(whole, parts)
	if err != nil {
		return nil, err
	}
	return streamsFor(path, size, ranges, windowsize)
}

// PartitionsBySize is Partitions with a fixed maximum range length instead of a count.
func PartitionsBySize(path string, size int64, r *ByteRange, windowsize int) ([]*WordStream, error) {
	whole, fsize, err := resolveRange(path, r)
	if err != nil {
		return nil, err
	}
	ranges, err := SplitBySize(whole, size)
	if err != nil {
		return nil, err
	}
	return streamsFor(path, fsize, ranges, windowsize)
}

func resolveRange(path string, r *ByteRange) (ByteRange, int64, error) {
	size, err := fileSize(path)
	if err != nil {
		return ByteRange{}, 0, err
	}
	whole := ByteRange{Start: 0, Stop: size}
	if r != nil {
		whole = *r
	}
	if err := whole.Validate(size); err != nil {
		return ByteRange{}, 0, err
	}
	return whole, size, nil
}

func streamsFor(path string, size int64, ranges []ByteRange, windowsize int) ([]*WordStream, error) {
	streams := make([]*WordStream, 0, len(ranges))
	for _, r := range ranges {
		s, err := newWordStream(path, size, r, windowsize)
		if err != nil {
			return nil, err
		}
		streams = append(streams, s)
	}
	return streams, nil
}
