// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive bundles produced PDFs into a single passphrase-encrypted
// container. The layout is a zip of the artifacts under their base
// filenames, sealed with XChaCha20-Poly1305 under an scrypt-derived key:
//
//	magic "ALXA1" | 16-byte salt | 24-byte nonce | ciphertext
//
// Opening with the wrong passphrase fails authentication; it never yields
// garbage bytes.
package archive

import (
	"archive/zip"
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

var magic = []byte("ALXA1")

const saltSize = 16

// scrypt cost parameters. N is interactive-login strength; archives are
// created at most a few times per session.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// ErrWrongPassphrase is returned when decryption fails authentication.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted archive")

// ErrNotArchive is returned when the file does not carry the container
// magic.
var ErrNotArchive = errors.New("not an autolatex archive")

// Create writes an encrypted container at path holding every artifact
// under its base filename. An empty artifact list or an empty passphrase
// is rejected before any file I/O happens.
func Create(path, passphrase string, artifacts []string) error {
	if len(artifacts) == 0 {
		return fmt.Errorf("no artifacts to archive")
	}
	if passphrase == "" {
		return fmt.Errorf("archive passphrase must not be empty")
	}

	var plain bytes.Buffer
	zw := zip.NewWriter(&plain)
	for _, artifact := range artifacts {
		data, err := os.ReadFile(artifact)
		if err != nil {
			return fmt.Errorf("reading artifact %s: %w", artifact, err)
		}
		entry, err := zw.Create(filepath.Base(artifact))
		if err != nil {
			return fmt.Errorf("adding %s to archive: %w", filepath.Base(artifact), err)
		}
		if _, err := entry.Write(data); err != nil {
			return fmt.Errorf("writing %s to archive: %w", filepath.Base(artifact), err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}

	sealed, err := seal(plain.Bytes(), passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, sealed, 0o600); err != nil {
		return fmt.Errorf("writing archive %s: %w", path, err)
	}
	return nil
}

// Open decrypts the container at path and returns its entries as a map of
// base filename to contents.
func Open(path, passphrase string) (map[string][]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("archive passphrase must not be empty")
	}
	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", path, err)
	}

	plain, err := open(sealed, passphrase)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(plain), int64(len(plain)))
	if err != nil {
		return nil, fmt.Errorf("reading archive contents: %w", err)
	}

	entries := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening archive entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading archive entry %s: %w", f.Name, err)
		}
		entries[f.Name] = data
	}
	return entries, nil
}

func seal(plain []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	out := make([]byte, 0, len(magic)+saltSize+len(nonce)+len(plain)+aead.Overhead())
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plain, nil), nil
}

func open(sealed []byte, passphrase string) ([]byte, error) {
	if len(sealed) < len(magic)+saltSize+chacha20poly1305.NonceSizeX || !bytes.HasPrefix(sealed, magic) {
		return nil, ErrNotArchive
	}
	rest := sealed[len(magic):]
	salt, rest := rest[:saltSize], rest[saltSize:]
	nonce, ciphertext := rest[:chacha20poly1305.NonceSizeX], rest[chacha20poly1305.NonceSizeX:]

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plain, nil
}

func newAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("deriving archive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return aead, nil
}
