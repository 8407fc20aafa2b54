package socialproof

import "math/rand/v2"

// buildQueue composes a rotation: the current day part first, then a sample of
// exclusivity copy, then at most one geographic and one urgency message.
func (r *Rotator) buildQueue() []Message {
	part := r.cfg.DayParts.At(r.clock.Now().Hour())

	queue := append([]Message(nil), r.catalog.TimeOfDayPool(part)...)
	queue = append(queue, sample(r.rng, r.catalog.Exclusivity, r.cfg.ExclusivitySample)...)

	if len(r.catalog.Geographic) > 0 && r.rng.Float64() < r.cfg.GeographicChance {
		queue = append(queue, r.catalog.Geographic[r.rng.IntN(len(r.catalog.Geographic))])
	}
	if len(r.catalog.Urgency) > 0 && r.rng.Float64() < r.cfg.UrgencyChance {
		queue = append(queue, r.catalog.Urgency[r.rng.IntN(len(r.catalog.Urgency))])
	}

	return queue
}

// sample returns the first n messages of a uniform shuffle of pool.
func sample(rng *rand.Rand, pool []Message, n int) []Message {
	shuffled := append([]Message(nil), pool...)
	shuffle(rng, shuffled)
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

// shuffle is Fisher-Yates: every permutation is equally likely.
func shuffle(rng *rand.Rand, msgs []Message) {
	for i := len(msgs) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
