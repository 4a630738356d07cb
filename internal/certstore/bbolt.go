package certstore

import (
	gocrypto "crypto"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/illarion/credseal/internal/crypto"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket = []byte("config") // version, timestamps
	IndexBucket  = []byte("index")  // public certificate details for ls/status
	CertsBucket  = []byte("certs")  // DER certificates
	KeysBucket   = []byte("keys")   // PKCS#8 private keys
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
)

var (
	ErrNotInitialized    = errors.New("certificate store not initialized")
	ErrInvalidThumbprint = errors.New("invalid thumbprint")
	ErrKeyMismatch       = errors.New("private key does not match certificate")
)

// Storage provides BBolt-based certificate storage
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a certificate store database
func Open(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// Initialize creates the bucket structure for a new store
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		config, err := tx.CreateBucketIfNotExists(ConfigBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", ConfigBucket, err)
		}

		// Personal store in both locations always exists
		for _, location := range []StoreLocation{LocalMachine, CurrentUser} {
			if _, err := storeBucket(tx, location, My, true); err != nil {
				return err
			}
		}

		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}

		now, _ := time.Now().MarshalBinary()
		if err := config.Put(ConfigCreated, now); err != nil {
			return err
		}
		return config.Put(ConfigModified, now)
	})
}

// IsInitialized checks if the database has been initialized
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// storeBucket returns the bucket for location/name. With create set the
// bucket tree is created when missing; otherwise nil is returned.
func storeBucket(tx *bolt.Tx, location StoreLocation, name StoreName, create bool) (*bolt.Bucket, error) {
	if !create {
		loc := tx.Bucket([]byte(location))
		if loc == nil {
			return nil, nil
		}
		return loc.Bucket([]byte(name)), nil
	}

	loc, err := tx.CreateBucketIfNotExists([]byte(location))
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", location, err)
	}
	store, err := loc.CreateBucketIfNotExists([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket %s/%s: %w", location, name, err)
	}
	for _, sub := range [][]byte{IndexBucket, CertsBucket, KeysBucket} {
		if _, err := store.CreateBucketIfNotExists(sub); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s/%s/%s: %w", location, name, sub, err)
		}
	}
	return store, nil
}

func touch(tx *bolt.Tx) error {
	config := tx.Bucket(ConfigBucket)
	if config == nil {
		return ErrNotInitialized
	}
	modified, _ := time.Now().MarshalBinary()
	return config.Put(ConfigModified, modified)
}

// Import adds a certificate, and optionally its private key, to
// location/name. It returns the certificate thumbprint. Re-importing a
// certificate without a key keeps a previously imported key.
func (s *Storage) Import(location StoreLocation, name StoreName, cert *x509.Certificate, key gocrypto.PrivateKey) (string, error) {
	if key != nil {
		if err := checkKeyMatches(cert, key); err != nil {
			return "", err
		}
	}

	thumbprint := Thumbprint(cert)

	var keyDER []byte
	if key != nil {
		var err error
		keyDER, err = x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return "", fmt.Errorf("failed to encode private key: %w", err)
		}
		defer crypto.ClearBytes(keyDER)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(ConfigBucket) == nil {
			return ErrNotInitialized
		}

		store, err := storeBucket(tx, location, name, true)
		if err != nil {
			return err
		}

		id := []byte(thumbprint)
		keys := store.Bucket(KeysBucket)
		if keyDER != nil {
			if err := keys.Put(id, keyDER); err != nil {
				return err
			}
		}

		entry := newEntry(cert, thumbprint, keys.Get(id) != nil)
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := store.Bucket(IndexBucket).Put(id, data); err != nil {
			return err
		}
		if err := store.Bucket(CertsBucket).Put(id, cert.Raw); err != nil {
			return err
		}
		return touch(tx)
	})
	if err != nil {
		return "", err
	}
	return thumbprint, nil
}

// Load returns the certificate with the given thumbprint from location/name.
// A certificate that is not in the store is not an error: Load returns nil, nil.
func (s *Storage) Load(name StoreName, location StoreLocation, thumbprint string) (*Certificate, error) {
	normalized, err := NormalizeThumbprint(thumbprint)
	if err != nil {
		return nil, err
	}

	var certDER, keyDER []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		store, err := storeBucket(tx, location, name, false)
		if err != nil || store == nil {
			return err
		}
		id := []byte(normalized)
		// Make copies since the slices are only valid during the transaction
		if data := store.Bucket(CertsBucket).Get(id); data != nil {
			certDER = append([]byte(nil), data...)
		}
		if data := store.Bucket(KeysBucket).Get(id); data != nil {
			keyDER = append([]byte(nil), data...)
		}
		return nil
	})
	defer crypto.ClearBytes(keyDER)
	if err != nil {
		return nil, err
	}
	if certDER == nil {
		return nil, nil
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored certificate %s: %w", normalized, err)
	}

	loaded := &Certificate{
		Thumbprint: normalized,
		Location:   location,
		Name:       name,
		Cert:       cert,
	}
	if keyDER != nil {
		key, err := x509.ParsePKCS8PrivateKey(keyDER)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored private key %s: %w", normalized, err)
		}
		loaded.key = key
	}
	return loaded, nil
}

// List returns the index entries of location/name sorted by subject
func (s *Storage) List(location StoreLocation, name StoreName) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		store, err := storeBucket(tx, location, name, false)
		if err != nil || store == nil {
			return err
		}
		return store.Bucket(IndexBucket).ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Subject != entries[j].Subject {
			return entries[i].Subject < entries[j].Subject
		}
		return entries[i].Thumbprint < entries[j].Thumbprint
	})
	return entries, err
}

// Stores returns the store names present under location
func (s *Storage) Stores(location StoreLocation) ([]StoreName, error) {
	var names []StoreName
	err := s.db.View(func(tx *bolt.Tx) error {
		loc := tx.Bucket([]byte(location))
		if loc == nil {
			return nil
		}
		return loc.ForEachBucket(func(k []byte) error {
			names = append(names, StoreName(k))
			return nil
		})
	})
	return names, err
}

// Remove deletes a certificate and its key from location/name.
// It reports whether the certificate was present.
func (s *Storage) Remove(location StoreLocation, name StoreName, thumbprint string) (bool, error) {
	normalized, err := NormalizeThumbprint(thumbprint)
	if err != nil {
		return false, err
	}

	var found bool
	err = s.db.Update(func(tx *bolt.Tx) error {
		store, err := storeBucket(tx, location, name, false)
		if err != nil || store == nil {
			return err
		}
		id := []byte(normalized)
		if store.Bucket(CertsBucket).Get(id) == nil {
			return nil
		}
		found = true
		for _, sub := range [][]byte{IndexBucket, CertsBucket, KeysBucket} {
			if err := store.Bucket(sub).Delete(id); err != nil {
				return err
			}
		}
		return touch(tx)
	})
	return found, err
}

// GetCreated retrieves the store creation timestamp
func (s *Storage) GetCreated() (time.Time, error) {
	return s.getTime(ConfigCreated)
}

// GetModified retrieves the last modified timestamp
func (s *Storage) GetModified() (time.Time, error) {
	return s.getTime(ConfigModified)
}

func (s *Storage) getTime(key []byte) (time.Time, error) {
	var t time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(key)
		if data == nil {
			return fmt.Errorf("%s time not found", key)
		}
		return t.UnmarshalBinary(data)
	})
	return t, err
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after removing certificates to reclaim disk space.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	// Create new database
	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	// bolt.Compact copies nested buckets as well
	if err := bolt.Compact(dst, s.db, 0); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	// Reopen database
	s.db, err = bolt.Open(srcPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}

func checkKeyMatches(cert *x509.Certificate, key gocrypto.PrivateKey) error {
	signer, ok := key.(gocrypto.Signer)
	if !ok {
		return fmt.Errorf("%w: unsupported key type %T", ErrKeyMismatch, key)
	}
	pub, ok := signer.Public().(interface{ Equal(gocrypto.PublicKey) bool })
	if !ok || !pub.Equal(cert.PublicKey) {
		return ErrKeyMismatch
	}
	return nil
}
