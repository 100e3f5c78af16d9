// Package asic writes signed ASiC-E containers: ZIP archives whose first
// member declares the application/vnd.etsi.asic-e+zip media type, followed by
// data entries and the signature material kept under META-INF/.
//
// A [Writer] moves through a fixed sequence of phases. Data entries are added
// while the writer is open, [Writer.Sign] seals the data set and writes the
// signature, and [Writer.Close] finishes the archive. Calls out of order fail
// with an error wrapping [ErrProtocol]. How the container is signed, how
// entries are encrypted and what extra metadata is written are pluggable
// strategies supplied as options.
//
// For low-level use and the strategy interfaces, see the [core] subpackage.
// Signature creators live in core/signature, encryption filters in
// core/encryption and lifecycle processors in core/processor.
//
// # Quick Start
//
// Package a directory with an Ed25519 signed manifest:
//
//	signer, err := signature.NewEd25519Signer(priv)
//	if err != nil {
//	    return err
//	}
//	desc, err := asic.Package(ctx, asic.PackageJob{
//	    Dest:     "site.asice",
//	    Source:   "./site",
//	    RootFile: "index.html",
//	}, asic.WithSignatureCreator(signature.NewManifestCreator(signer)))
//
// Stream entries yourself:
//
//	w, err := asic.NewWriter(ctx, out,
//	    asic.WithSignatureCreator(creator),
//	    asic.WithEncryptionFilter(filter),
//	)
//	if err != nil {
//	    return err
//	}
//	s, err := w.EncryptNext().Add("secret.txt", "text/plain")
//	...
//	if err := w.Sign(ctx); err != nil {
//	    return err
//	}
//	return w.Close()
//
// # Batches
//
// [PackageAll] builds several containers on a bounded worker pool and
// returns an OCI descriptor for each file.
package asic
