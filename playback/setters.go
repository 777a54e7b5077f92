package playback

// SetCurrentStepIndex returns an UpdateSetter that tracks replay progress.
func SetCurrentStepIndex(index int) UpdateSetter {
	return func(ps *PlaybackSession) error {
		ps.CurrentStepIndex = index
		return nil
	}
}

// SetSpeed returns an UpdateSetter that changes the playback speed. The speed
// only scales the delay between steps, never primitive timeouts.
func SetSpeed(speed float64) UpdateSetter {
	return func(ps *PlaybackSession) error {
		if speed <= 0 {
			return ErrInvalidSpeed
		}
		ps.Speed = speed
		return nil
	}
}
