// Package secrets decrypts credentials bundled with the distributed binary.
//
// Ciphertexts are produced with a key derived deterministically from the
// application identifier, so the same source secret always encrypts to the
// same ciphertext and can be committed to the repository. Decryption results
// (and failures) are cached for the process lifetime.
package secrets
