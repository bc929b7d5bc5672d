package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/melodix/server/internal/domain"
	"github.com/melodix/server/internal/repository"
	"github.com/melodix/server/internal/storage"
)

// failer injects method-level failures into the fakes.
type failer struct {
	errs map[string]error
}

func (f *failer) failOn(op string, err error) {
	if f.errs == nil {
		f.errs = map[string]error{}
	}
	f.errs[op] = err
}

func (f *failer) fail(op string) error {
	return f.errs[op]
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// fakeSongRepo is an in-memory SongRepository.
type fakeSongRepo struct {
	failer
	songs map[primitive.ObjectID]*domain.Song
}

func newFakeSongRepo() *fakeSongRepo {
	return &fakeSongRepo{songs: map[primitive.ObjectID]*domain.Song{}}
}

func (r *fakeSongRepo) Insert(_ context.Context, song *domain.Song) error {
	if err := r.fail("Insert"); err != nil {
		return err
	}
	if song.ID.IsZero() {
		song.ID = primitive.NewObjectID()
	}
	song.CreatedAt = time.Now()
	song.UpdatedAt = song.CreatedAt
	r.songs[song.ID] = song
	return nil
}

func (r *fakeSongRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Song, error) {
	if err := r.fail("GetByID"); err != nil {
		return nil, err
	}
	return r.songs[id], nil
}

func (r *fakeSongRepo) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	if err := r.fail("Delete"); err != nil {
		return 0, err
	}
	if _, ok := r.songs[id]; !ok {
		return 0, nil
	}
	delete(r.songs, id)
	return 1, nil
}

func (r *fakeSongRepo) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]*domain.Song, error) {
	if err := r.fail("ListByIDs"); err != nil {
		return nil, err
	}
	var out []*domain.Song
	for _, id := range ids {
		if s, ok := r.songs[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSongRepo) ListWithImage(_ context.Context) ([]*domain.Song, error) {
	if err := r.fail("ListWithImage"); err != nil {
		return nil, err
	}
	var out []*domain.Song
	for _, s := range r.songs {
		if s.ImageURL != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSongRepo) AddFavorite(_ context.Context, songID, userID primitive.ObjectID) (int64, error) {
	s, ok := r.songs[songID]
	if !ok {
		return 0, nil
	}
	if contains(s.Favorites, userID) {
		return 0, nil
	}
	s.Favorites = append(s.Favorites, userID)
	return 1, nil
}

func (r *fakeSongRepo) AddPlaylistRef(_ context.Context, songIDs []primitive.ObjectID, playlistID primitive.ObjectID) (int64, error) {
	if err := r.fail("AddPlaylistRef"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range songIDs {
		if s, ok := r.songs[id]; ok && !contains(s.PlaylistFor, playlistID) {
			s.PlaylistFor = append(s.PlaylistFor, playlistID)
			n++
		}
	}
	return n, nil
}

func (r *fakeSongRepo) RemovePlaylistRef(_ context.Context, songIDs []primitive.ObjectID, playlistID primitive.ObjectID) (int64, error) {
	var n int64
	for _, id := range songIDs {
		if s, ok := r.songs[id]; ok && contains(s.PlaylistFor, playlistID) {
			s.PlaylistFor = remove(s.PlaylistFor, playlistID)
			n++
		}
	}
	return n, nil
}

func (r *fakeSongRepo) ClearPlaylistRefs(_ context.Context, songID primitive.ObjectID) error {
	if s, ok := r.songs[songID]; ok {
		s.PlaylistFor = []primitive.ObjectID{}
	}
	return nil
}

func (r *fakeSongRepo) SetImage(_ context.Context, songID primitive.ObjectID, imageURL string, p domain.Palette) (int64, error) {
	s, ok := r.songs[songID]
	if !ok {
		return 0, nil
	}
	s.ImageURL = imageURL
	s.Palette = p
	return 1, nil
}

func (r *fakeSongRepo) SetPalette(_ context.Context, songID primitive.ObjectID, p domain.Palette) error {
	if err := r.fail("SetPalette"); err != nil {
		return err
	}
	if s, ok := r.songs[songID]; ok {
		s.Palette = p
	}
	return nil
}

func (r *fakeSongRepo) UnsetPalettes(_ context.Context) (int64, error) {
	var n int64
	for _, s := range r.songs {
		if !s.Palette.IsEmpty() {
			s.Palette = domain.Palette{}
			n++
		}
	}
	return n, nil
}

func (r *fakeSongRepo) SaveRating(_ context.Context, songID primitive.ObjectID, rating domain.Rating) error {
	s, ok := r.songs[songID]
	if !ok {
		return nil
	}
	kept := s.Ratings[:0]
	for _, existing := range s.Ratings {
		if existing.UserID != rating.UserID {
			kept = append(kept, existing)
		}
	}
	s.Ratings = append(kept, rating)
	return nil
}

func (r *fakeSongRepo) SetRatingActivity(_ context.Context, songID primitive.ObjectID, count int, average float64) (int64, error) {
	s, ok := r.songs[songID]
	if !ok {
		return 0, nil
	}
	s.Activities.TotalRatingCount = count
	s.Activities.AverageRating = average
	return 1, nil
}

func (r *fakeSongRepo) SetOwnershipDonated(_ context.Context, songID primitive.ObjectID, at time.Time) (int64, error) {
	s, ok := r.songs[songID]
	if !ok || !s.Ownership.UserOwned {
		return 0, nil
	}
	s.Ownership.UserOwned = false
	s.Ownership.TransferredAt = &at
	return 1, nil
}

// fakePlaylistRepo is an in-memory PlaylistRepository. onMerge, when set,
// runs before MergeSongs applies, to model writes racing the merge.
type fakePlaylistRepo struct {
	failer
	playlists map[primitive.ObjectID]*domain.Playlist
	onMerge   func()
}

func newFakePlaylistRepo() *fakePlaylistRepo {
	return &fakePlaylistRepo{playlists: map[primitive.ObjectID]*domain.Playlist{}}
}

func (r *fakePlaylistRepo) Insert(_ context.Context, playlist *domain.Playlist) error {
	if err := r.fail("Insert"); err != nil {
		return err
	}
	if playlist.ID.IsZero() {
		playlist.ID = primitive.NewObjectID()
	}
	if playlist.Songs == nil {
		playlist.Songs = []primitive.ObjectID{}
	}
	playlist.CreatedAt = time.Now()
	playlist.UpdatedAt = playlist.CreatedAt
	r.playlists[playlist.ID] = playlist
	return nil
}

func (r *fakePlaylistRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Playlist, error) {
	if err := r.fail("GetByID"); err != nil {
		return nil, err
	}
	return r.playlists[id], nil
}

func (r *fakePlaylistRepo) GetDefaultByUser(_ context.Context, userID primitive.ObjectID) (*domain.Playlist, error) {
	for _, p := range r.playlists {
		if p.UserID == userID && p.Default {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePlaylistRepo) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	if _, ok := r.playlists[id]; !ok {
		return 0, nil
	}
	delete(r.playlists, id)
	return 1, nil
}

func (r *fakePlaylistRepo) ListAll(_ context.Context) ([]*domain.Playlist, error) {
	if err := r.fail("ListAll"); err != nil {
		return nil, err
	}
	var out []*domain.Playlist
	for _, p := range r.playlists {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePlaylistRepo) NextGeneratedIndex(_ context.Context, userID primitive.ObjectID) (int, error) {
	highest := 0
	for _, p := range r.playlists {
		if p.UserID != userID || !strings.HasPrefix(p.Title, domain.GeneratedTitlePrefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(p.Title, domain.GeneratedTitlePrefix)); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

func (r *fakePlaylistRepo) AddSong(_ context.Context, playlistID, songID primitive.ObjectID, duration float64) (int64, error) {
	if err := r.fail("AddSong"); err != nil {
		return 0, err
	}
	p, ok := r.playlists[playlistID]
	if !ok || contains(p.Songs, songID) {
		return 0, nil
	}
	p.Songs = append(p.Songs, songID)
	p.Stats.TotalSongCount++
	p.Stats.TotalSongDuration += duration
	return 1, nil
}

func (r *fakePlaylistRepo) RemoveSongFromMany(_ context.Context, playlistIDs []primitive.ObjectID, songID primitive.ObjectID, duration float64) (int64, error) {
	var n int64
	for _, id := range playlistIDs {
		p, ok := r.playlists[id]
		if !ok || !contains(p.Songs, songID) {
			continue
		}
		p.Songs = remove(p.Songs, songID)
		p.Stats.TotalSongCount--
		p.Stats.TotalSongDuration -= duration
		n++
	}
	return n, nil
}

func (r *fakePlaylistRepo) MergeSongs(_ context.Context, targetID primitive.ObjectID, songIDs []primitive.ObjectID, count int, duration float64) (int64, error) {
	if err := r.fail("MergeSongs"); err != nil {
		return 0, err
	}
	if r.onMerge != nil {
		r.onMerge()
	}
	p, ok := r.playlists[targetID]
	if !ok {
		return 0, nil
	}
	for _, id := range songIDs {
		if !contains(p.Songs, id) {
			p.Songs = append(p.Songs, id)
		}
	}
	p.Stats.TotalSongCount += count
	p.Stats.TotalSongDuration += duration
	return 1, nil
}

func (r *fakePlaylistRepo) SetCover(_ context.Context, id primitive.ObjectID, coverURL string) (int64, error) {
	p, ok := r.playlists[id]
	if !ok {
		return 0, nil
	}
	p.CoverURL = coverURL
	return 1, nil
}

func (r *fakePlaylistRepo) SetStats(_ context.Context, id primitive.ObjectID, stats domain.PlaylistStats) (int64, error) {
	if err := r.fail("SetStats"); err != nil {
		return 0, err
	}
	p, ok := r.playlists[id]
	if !ok {
		return 0, nil
	}
	p.Stats = stats
	return 1, nil
}

func (r *fakePlaylistRepo) UnsetStats(_ context.Context) (int64, error) {
	var n int64
	for _, p := range r.playlists {
		if p.Stats != (domain.PlaylistStats{}) {
			p.Stats = domain.PlaylistStats{}
			n++
		}
	}
	return n, nil
}

// fakeAlbumRepo is an in-memory AlbumRepository.
type fakeAlbumRepo struct {
	failer
	albums map[primitive.ObjectID]*domain.Album
}

func newFakeAlbumRepo() *fakeAlbumRepo {
	return &fakeAlbumRepo{albums: map[primitive.ObjectID]*domain.Album{}}
}

func (r *fakeAlbumRepo) Insert(_ context.Context, album *domain.Album) error {
	if err := r.fail("Insert"); err != nil {
		return err
	}
	if album.ID.IsZero() {
		album.ID = primitive.NewObjectID()
	}
	album.CreatedAt = time.Now()
	album.UpdatedAt = album.CreatedAt
	r.albums[album.ID] = album
	return nil
}

func (r *fakeAlbumRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Album, error) {
	return r.albums[id], nil
}

func (r *fakeAlbumRepo) FindByTitleAndArtists(_ context.Context, title string, artistIDs []primitive.ObjectID) (*domain.Album, error) {
	for _, a := range r.albums {
		if a.Title != title || len(a.Artists) != len(artistIDs) {
			continue
		}
		match := true
		for _, id := range artistIDs {
			if !contains(a.Artists, id) {
				match = false
				break
			}
		}
		if match {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAlbumRepo) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	if _, ok := r.albums[id]; !ok {
		return 0, nil
	}
	delete(r.albums, id)
	return 1, nil
}

func (r *fakeAlbumRepo) AddUser(_ context.Context, albumID, userID primitive.ObjectID) (int64, error) {
	a, ok := r.albums[albumID]
	if !ok || contains(a.Users, userID) {
		return 0, nil
	}
	a.Users = append(a.Users, userID)
	return 1, nil
}

func (r *fakeAlbumRepo) RemoveUser(_ context.Context, albumID, userID primitive.ObjectID) (int64, error) {
	a, ok := r.albums[albumID]
	if !ok || !contains(a.Users, userID) {
		return 0, nil
	}
	a.Users = remove(a.Users, userID)
	return 1, nil
}

func (r *fakeAlbumRepo) AddSong(_ context.Context, albumID, songID primitive.ObjectID, duration float64) (int64, error) {
	if err := r.fail("AddSong"); err != nil {
		return 0, err
	}
	a, ok := r.albums[albumID]
	if !ok || contains(a.Songs, songID) {
		return 0, nil
	}
	a.Songs = append(a.Songs, songID)
	a.TotalDuration += duration
	return 1, nil
}

func (r *fakeAlbumRepo) RemoveSong(_ context.Context, albumID, songID primitive.ObjectID, duration float64) (int64, error) {
	a, ok := r.albums[albumID]
	if !ok || !contains(a.Songs, songID) {
		return 0, nil
	}
	a.Songs = remove(a.Songs, songID)
	a.TotalDuration -= duration
	return 1, nil
}

func (r *fakeAlbumRepo) SetCover(_ context.Context, albumID primitive.ObjectID, coverURL string, p domain.Palette) (int64, error) {
	a, ok := r.albums[albumID]
	if !ok {
		return 0, nil
	}
	a.CoverURL = coverURL
	a.Palette = p
	return 1, nil
}

// fakeUserRepo is an in-memory UserRepository with the same guarded-counter
// semantics as the store-backed one.
type fakeUserRepo struct {
	failer
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}
}

func (r *fakeUserRepo) Insert(_ context.Context, user *domain.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]*domain.User, error) {
	if err := r.fail("ListByIDs"); err != nil {
		return nil, err
	}
	var out []*domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListWithAvatar(_ context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		if u.AvatarURL != "" {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) AddSongRef(_ context.Context, userID, songID primitive.ObjectID) (int64, error) {
	if err := r.fail("AddSongRef"); err != nil {
		return 0, err
	}
	u, ok := r.users[userID]
	if !ok || contains(u.Songs, songID) {
		return 0, nil
	}
	u.Songs = append(u.Songs, songID)
	u.TotalSongs++
	return 1, nil
}

func (r *fakeUserRepo) RemoveSongRef(_ context.Context, userID, songID primitive.ObjectID) (int64, error) {
	u, ok := r.users[userID]
	if !ok || !contains(u.Songs, songID) {
		return 0, nil
	}
	u.Songs = remove(u.Songs, songID)
	u.TotalSongs--
	return 1, nil
}

func (r *fakeUserRepo) AddAlbumRef(_ context.Context, userID, albumID primitive.ObjectID) (int64, error) {
	u, ok := r.users[userID]
	if !ok || contains(u.Albums, albumID) {
		return 0, nil
	}
	u.Albums = append(u.Albums, albumID)
	u.TotalAlbums++
	return 1, nil
}

func (r *fakeUserRepo) RemoveAlbumRef(_ context.Context, userID, albumID primitive.ObjectID) (int64, error) {
	u, ok := r.users[userID]
	if !ok || !contains(u.Albums, albumID) {
		return 0, nil
	}
	u.Albums = remove(u.Albums, albumID)
	u.TotalAlbums--
	return 1, nil
}

func (r *fakeUserRepo) Follow(_ context.Context, userID, artistID primitive.ObjectID) (int64, error) {
	u, ok := r.users[userID]
	if !ok || contains(u.Following, artistID) {
		return 0, nil
	}
	u.Following = append(u.Following, artistID)
	u.TotalFollowing++
	return 1, nil
}

func (r *fakeUserRepo) AddPlaylistRef(_ context.Context, userID, playlistID primitive.ObjectID) (int64, error) {
	if err := r.fail("AddPlaylistRef"); err != nil {
		return 0, err
	}
	u, ok := r.users[userID]
	if !ok || contains(u.Playlists, playlistID) {
		return 0, nil
	}
	u.Playlists = append(u.Playlists, playlistID)
	u.TotalPlaylists++
	return 1, nil
}

func (r *fakeUserRepo) RemovePlaylistRef(_ context.Context, userID, playlistID primitive.ObjectID) (int64, error) {
	u, ok := r.users[userID]
	if !ok || !contains(u.Playlists, playlistID) {
		return 0, nil
	}
	u.Playlists = remove(u.Playlists, playlistID)
	u.TotalPlaylists--
	return 1, nil
}

func (r *fakeUserRepo) PullPlayerSongRefs(_ context.Context, songID primitive.ObjectID) (int64, error) {
	var n int64
	for _, u := range r.users {
		if contains(u.Preferences.Player.Queue, songID) {
			u.Preferences.Player.Queue = remove(u.Preferences.Player.Queue, songID)
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) PushNotification(_ context.Context, userIDs []primitive.ObjectID, notificationID primitive.ObjectID) (int64, error) {
	if err := r.fail("PushNotification"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range userIDs {
		u, ok := r.users[id]
		if !ok {
			continue
		}
		carrying := false
		for _, un := range u.Notifications {
			if un.ID == notificationID {
				carrying = true
				break
			}
		}
		if carrying {
			continue
		}
		u.Notifications = append(u.Notifications, domain.UserNotification{ID: notificationID})
		n++
	}
	return n, nil
}

func (r *fakeUserRepo) PullNotification(_ context.Context, notificationID primitive.ObjectID) (int64, error) {
	var n int64
	for _, u := range r.users {
		kept := u.Notifications[:0]
		pulled := false
		for _, un := range u.Notifications {
			if un.ID == notificationID {
				pulled = true
				continue
			}
			kept = append(kept, un)
		}
		if pulled {
			u.Notifications = kept
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) ResetNotificationFlags(_ context.Context) (int64, error) {
	var n int64
	for _, u := range r.users {
		if len(u.Notifications) == 0 {
			continue
		}
		for i := range u.Notifications {
			u.Notifications[i].Read = false
			u.Notifications[i].Viewed = false
		}
		n++
	}
	return n, nil
}

func (r *fakeUserRepo) SetPalette(_ context.Context, userID primitive.ObjectID, p domain.Palette) error {
	if u, ok := r.users[userID]; ok {
		u.Palette = p
	}
	return nil
}

func (r *fakeUserRepo) UnsetPalettes(_ context.Context) (int64, error) {
	var n int64
	for _, u := range r.users {
		if !u.Palette.IsEmpty() {
			u.Palette = domain.Palette{}
			n++
		}
	}
	return n, nil
}

// fakeArtistRepo is an in-memory ArtistRepository.
type fakeArtistRepo struct {
	artists map[primitive.ObjectID]*domain.Artist
}

func newFakeArtistRepo() *fakeArtistRepo {
	return &fakeArtistRepo{artists: map[primitive.ObjectID]*domain.Artist{}}
}

func (r *fakeArtistRepo) Insert(_ context.Context, artist *domain.Artist) error {
	if artist.ID.IsZero() {
		artist.ID = primitive.NewObjectID()
	}
	r.artists[artist.ID] = artist
	return nil
}

func (r *fakeArtistRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Artist, error) {
	return r.artists[id], nil
}

// fakeNotificationRepo is an in-memory NotificationRepository.
type fakeNotificationRepo struct {
	failer
	notifications map[primitive.ObjectID]*domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: map[primitive.ObjectID]*domain.Notification{}}
}

func (r *fakeNotificationRepo) Insert(_ context.Context, n *domain.Notification) error {
	if err := r.fail("Insert"); err != nil {
		return err
	}
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.CreatedAt = time.Now()
	r.notifications[n.ID] = n
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Notification, error) {
	return r.notifications[id], nil
}

func (r *fakeNotificationRepo) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	if _, ok := r.notifications[id]; !ok {
		return 0, nil
	}
	delete(r.notifications, id)
	return 1, nil
}

// fakeLabel is a minimal label document for reference maintenance.
type fakeLabel struct {
	fields map[string][]primitive.ObjectID
}

// fakeRefs is an in-memory RefMaintainer over the artist, label and album
// fakes.
type fakeRefs struct {
	artists *fakeArtistRepo
	albums  *fakeAlbumRepo
	labels  map[primitive.ObjectID]*fakeLabel
}

func newFakeRefs(artists *fakeArtistRepo, albums *fakeAlbumRepo) *fakeRefs {
	return &fakeRefs{artists: artists, albums: albums, labels: map[primitive.ObjectID]*fakeLabel{}}
}

func (r *fakeRefs) seedLabel(id primitive.ObjectID) {
	r.labels[id] = &fakeLabel{fields: map[string][]primitive.ObjectID{}}
}

func (r *fakeRefs) artistField(a *domain.Artist, field string) *[]primitive.ObjectID {
	switch field {
	case "songs":
		return &a.Songs
	case "albums":
		return &a.Albums
	}
	return nil
}

func (r *fakeRefs) AddRef(_ context.Context, model repository.Model, targetIDs []primitive.ObjectID, field string, sourceID primitive.ObjectID) (int64, error) {
	var n int64
	for _, id := range targetIDs {
		switch model {
		case repository.ModelArtists:
			if a, ok := r.artists.artists[id]; ok {
				f := r.artistField(a, field)
				if f != nil && !contains(*f, sourceID) {
					*f = append(*f, sourceID)
					n++
				}
			}
		case repository.ModelLabels:
			if l, ok := r.labels[id]; ok && !contains(l.fields[field], sourceID) {
				l.fields[field] = append(l.fields[field], sourceID)
				n++
			}
		}
	}
	return n, nil
}

func (r *fakeRefs) RemoveRef(_ context.Context, model repository.Model, targetIDs []primitive.ObjectID, field string, sourceID primitive.ObjectID) (int64, error) {
	var n int64
	for _, id := range targetIDs {
		switch model {
		case repository.ModelArtists:
			if a, ok := r.artists.artists[id]; ok {
				f := r.artistField(a, field)
				if f != nil && contains(*f, sourceID) {
					*f = remove(*f, sourceID)
					n++
				}
			}
		case repository.ModelLabels:
			if l, ok := r.labels[id]; ok && contains(l.fields[field], sourceID) {
				l.fields[field] = remove(l.fields[field], sourceID)
				n++
			}
		}
	}
	return n, nil
}

func (r *fakeRefs) RemoveRefAll(_ context.Context, model repository.Model, field string, sourceID primitive.ObjectID) (int64, error) {
	var n int64
	switch model {
	case repository.ModelArtists:
		for _, a := range r.artists.artists {
			f := r.artistField(a, field)
			if f != nil && contains(*f, sourceID) {
				*f = remove(*f, sourceID)
				n++
			}
		}
	case repository.ModelLabels:
		for _, l := range r.labels {
			if contains(l.fields[field], sourceID) {
				l.fields[field] = remove(l.fields[field], sourceID)
				n++
			}
		}
	}
	return n, nil
}

func (r *fakeRefs) ReapOrphans(_ context.Context, model repository.Model, fields ...string) (int64, error) {
	var n int64
	if model != repository.ModelAlbums {
		return 0, nil
	}
	for id, a := range r.albums.albums {
		empty := true
		for _, field := range fields {
			switch field {
			case "artists":
				empty = empty && len(a.Artists) == 0
			case "users":
				empty = empty && len(a.Users) == 0
			case "songs":
				empty = empty && len(a.Songs) == 0
			}
		}
		if empty {
			delete(r.albums.albums, id)
			n++
		}
	}
	return n, nil
}

// fakeExtractor returns a canned palette and records the locators it saw.
type fakeExtractor struct {
	mu      sync.Mutex
	palette domain.Palette
	err     error
	seen    []string
}

func hex(s string) *string { return &s }

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{palette: domain.Palette{Vibrant: hex("#dc1e1e")}}
}

func (e *fakeExtractor) Extract(_ context.Context, imageURL string) (domain.Palette, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = append(e.seen, imageURL)
	if e.err != nil {
		return domain.Palette{}, e.err
	}
	return e.palette, nil
}

// recordingDeleter records deleted keys behind a storage.Cleaner.
type recordingDeleter struct {
	mu   sync.Mutex
	keys []string
}

func (d *recordingDeleter) DeleteByKey(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = append(d.keys, key)
	return true
}

func (d *recordingDeleter) deleted() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.keys...)
}

// fakeNotifier records push signals.
type fakeNotifier struct {
	mu         sync.Mutex
	userIDs    []string
	broadcasts int
	err        error
}

func (n *fakeNotifier) NotificationsChanged(_ context.Context, userID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.userIDs = append(n.userIDs, userID)
	return nil
}

func (n *fakeNotifier) Broadcast(_ context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.broadcasts++
	return nil
}

// fixture wires every service over the shared fakes.
type fixture struct {
	songs         *fakeSongRepo
	playlists     *fakePlaylistRepo
	albums        *fakeAlbumRepo
	users         *fakeUserRepo
	artists       *fakeArtistRepo
	notifications *fakeNotificationRepo
	refs          *fakeRefs
	extractor     *fakeExtractor
	deleter       *recordingDeleter
	cleaner       *storage.Cleaner
	notifier      *fakeNotifier

	notificationSvc *NotificationService
	songSvc         *SongService
	playlistSvc     *PlaylistService
	albumSvc        *AlbumService
	maintenanceSvc  *MaintenanceService
}

func newFixture() *fixture {
	f := &fixture{
		songs:         newFakeSongRepo(),
		playlists:     newFakePlaylistRepo(),
		albums:        newFakeAlbumRepo(),
		users:         newFakeUserRepo(),
		artists:       newFakeArtistRepo(),
		notifications: newFakeNotificationRepo(),
		extractor:     newFakeExtractor(),
		deleter:       &recordingDeleter{},
		notifier:      &fakeNotifier{},
	}
	f.refs = newFakeRefs(f.artists, f.albums)
	f.cleaner = storage.NewCleaner(f.deleter, "defaults")

	f.notificationSvc = NewNotificationService(f.notifications, f.users, f.artists, f.notifier)
	f.songSvc = NewSongService(f.songs, f.playlists, f.albums, f.users, f.artists, f.refs, f.notificationSvc, f.extractor, f.cleaner)
	f.playlistSvc = NewPlaylistService(f.playlists, f.songs, f.users, f.cleaner)
	f.albumSvc = NewAlbumService(f.albums, f.refs, f.extractor, f.cleaner)
	f.maintenanceSvc = NewMaintenanceService(f.playlists, f.songs, f.users, f.songSvc, f.notificationSvc, f.extractor)
	return f
}

func (f *fixture) seedUser(prefs domain.NotificationPrefs) *domain.User {
	u := &domain.User{
		ID:          primitive.NewObjectID(),
		Preferences: domain.UserPrefs{Notifications: prefs},
	}
	f.users.users[u.ID] = u
	return u
}

func (f *fixture) seedArtist(name string, followers ...primitive.ObjectID) *domain.Artist {
	a := &domain.Artist{ID: primitive.NewObjectID(), Name: name, Followers: followers}
	f.artists.artists[a.ID] = a
	return a
}

func (f *fixture) seedPlaylist(userID primitive.ObjectID, title string, isDefault bool) *domain.Playlist {
	p := &domain.Playlist{
		ID:      primitive.NewObjectID(),
		UserID:  userID,
		Title:   title,
		Songs:   []primitive.ObjectID{},
		Default: isDefault,
	}
	f.playlists.playlists[p.ID] = p
	if u, ok := f.users.users[userID]; ok {
		u.Playlists = append(u.Playlists, p.ID)
		u.TotalPlaylists++
	}
	return p
}

const blobOrigin = "https://cdn.melodix.test"

func blobURL(folder, name string) string {
	return blobOrigin + "/storage/v1/object/public/" + folder + "/" + name
}

func allowAll() domain.NotificationPrefs {
	return domain.NotificationPrefs{
		ArtistUpdates:       true,
		SystemAnnouncements: true,
		MonthlyStatistics:   true,
	}
}
