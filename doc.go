/*
Package cast implements CAST, a lossless structural pre-processor for
row-oriented text (CSV, TSV, delimited logs, JSON-lines, XML element
streams, SQL dumps). It rewrites input rows into a columnar intermediate
form before handing the result to an LZMA2 back end, then reverses the
transform exactly on restore.

Container

A container is a sequence of independently decodable blocks, each
preceded by its compressed length, optionally followed by a footer index
for random access.

    Container layout:
    +-------------+---------+---------+---------+--------------+
    | file header | block 1 |   ...   | block n | footer (opt) |
    +-------------+---------+---------+---------+--------------+

    File header:
    +-----------+---------+-----------+---------------------+
    | magic (4) | ver (1) | flags (1) | input size (varint)  |
    +-----------+---------+-----------+---------------------+

    Footer (present iff INDEXED):
    +-------------------+---------------------------------+----------------+-------+
    | entry_count (var) | {offset u64, len, row0, rows}*   | footer_len u64 | magic |
    +-------------------+---------------------------------+----------------+-------+

Block

A block carries its own header, a template table, a row-order stream and
one transposed byte stream per (template, column) pair, followed by a
CRC32 of the reconstructed plaintext. The whole logical layout below is
serialized once and handed to the coder adapter as a single buffer.

    Block layout:
    +--------------+-----------------+-------------------+-----------------+-------+
    | block header | template table  | row-order stream  | column streams  | crc32 |
    +--------------+-----------------+-------------------+-----------------+-------+

    (OPAQUE blocks replace template table / row-order / column streams with
    a single raw payload of uncompressed_len bytes.)

Template

A template is a row's invariant literal skeleton with a sentinel byte
(0x00) standing in for each variable field:

    "\x00 \x00 \x00\r\n"   (arity 3: "GET /x HTTP/1.1\r\n" under Aggressive)

Column stream

For a template with arity k, column i is the concatenation, in row order,
of the i-th variable field of every row assigned to that template within
the block — either 0x1F-separated or varint-length-prefixed, per the
block's COLSEP_MODE flag.
*/
package cast
