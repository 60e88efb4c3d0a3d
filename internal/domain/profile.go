package domain

import (
	"errors"
	"time"
)

// DefaultMaxPhotos is the number of photos a profile may hold unless configured otherwise.
const DefaultMaxPhotos = 6

// ErrIndexOutOfRange is returned by PhotoList operations given an invalid position.
var ErrIndexOutOfRange = errors.New("photo index out of range")

// Profile is the owner's dating profile record.
type Profile struct {
	OwnerID     string    `json:"ownerId" bson:"_id"`
	DisplayName string    `json:"displayName" bson:"displayName"`
	Bio         string    `json:"bio" bson:"bio"`
	Photos      PhotoList `json:"photos" bson:"photos"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PrimaryPhoto returns the URL at index 0, or "" when the profile has no photos.
func (p *Profile) PrimaryPhoto() string {
	if p == nil || len(p.Photos) == 0 {
		return ""
	}
	return p.Photos[0]
}

// PhotoList is the ordered list of photo URLs on a profile. Index 0 is the
// primary photo. Duplicates are not checked.
//
// All methods return a new slice and never modify the receiver.
type PhotoList []string

// Remaining reports how many more photos fit under max.
func (l PhotoList) Remaining(max int) int {
	if n := max - len(l); n > 0 {
		return n
	}
	return 0
}

// Append returns the list with urls added at the end, keeping at most max entries.
func (l PhotoList) Append(max int, urls ...string) PhotoList {
	out := make(PhotoList, 0, len(l)+len(urls))
	out = append(out, l...)
	for _, u := range urls {
		if len(out) >= max {
			break
		}
		out = append(out, u)
	}
	return out
}

// RemoveAt returns the list without the entry at index i.
func (l PhotoList) RemoveAt(i int) (PhotoList, error) {
	if i < 0 || i >= len(l) {
		return l, ErrIndexOutOfRange
	}
	out := make(PhotoList, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...), nil
}

// Promote moves the entry at index i to position 0 and shifts the entries
// before it down by one: promoting 2 in [A B C D] gives [C A B D].
func (l PhotoList) Promote(i int) (PhotoList, error) {
	if i < 0 || i >= len(l) {
		return l, ErrIndexOutOfRange
	}
	out := make(PhotoList, 0, len(l))
	out = append(out, l[i])
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...), nil
}
